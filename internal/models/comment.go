package models

import (
	"errors"
	"strings"
	"time"
)

// Статус комментария — производное значение, отдельно не хранится.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentBlocked  CommentStatus = "blocked"
)

// Окно, в течение которого автор может редактировать свой комментарий.
const CommentEditWindow = 15 * time.Minute

var ErrEmptyBlockReason = errors.New("причина блокировки обязательна")

type Comment struct {
	ID              int64      `db:"id"                json:"id"`
	ArticleID       int64      `db:"article_id"        json:"articleId"`
	AuthorID        int        `db:"author_id"         json:"authorId"`
	ParentCommentID *int64     `db:"parent_comment_id" json:"parentCommentId,omitempty"`
	Content         string     `db:"content"           json:"content"`
	IsApproved      bool       `db:"is_approved"       json:"isApproved"`
	IsBlocked       bool       `db:"is_blocked"        json:"isBlocked"`
	ModeratedAt     *time.Time `db:"moderated_at"      json:"moderatedAt,omitempty"`
	ModeratedByID   *int       `db:"moderated_by_id"   json:"moderatedById,omitempty"`
	BlockReason     *string    `db:"block_reason"      json:"blockReason,omitempty"`
	IPAddress       *string    `db:"ip_address"        json:"-"`
	UserAgent       *string    `db:"user_agent"        json:"-"`
	CreatedAt       time.Time  `db:"created_at"        json:"createdAt"`
	UpdatedAt       *time.Time `db:"updated_at"        json:"updatedAt,omitempty"`

	AuthorName   string     `db:"-" json:"authorName,omitempty"`
	Replies      []*Comment `db:"-" json:"replies,omitempty"`
	RepliesCount int        `db:"-" json:"repliesCount"`
}

// Status вычисляет трёхзначный статус: Blocked перекрывает Approved,
// немодерированный комментарий — Pending.
func (c *Comment) Status() CommentStatus {
	switch {
	case c.IsBlocked:
		return CommentBlocked
	case c.IsApproved:
		return CommentApproved
	default:
		return CommentPending
	}
}

// IsModerated — по комментарию уже принято решение.
func (c *Comment) IsModerated() bool {
	return c.IsApproved || c.IsBlocked
}

// IsReply — комментарий является ответом на другой комментарий.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// Approve одобряет комментарий. Допустим из любого состояния,
// в том числе повторно: блокировка и её причина снимаются.
func (c *Comment) Approve(moderatorID int) {
	now := time.Now()
	c.IsApproved = true
	c.IsBlocked = false
	c.ModeratedAt = &now
	c.ModeratedByID = &moderatorID
	c.BlockReason = nil
}

// Block блокирует комментарий. Причина обязательна.
func (c *Comment) Block(moderatorID int, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyBlockReason
	}
	now := time.Now()
	c.IsBlocked = true
	c.IsApproved = false
	c.ModeratedAt = &now
	c.ModeratedByID = &moderatorID
	c.BlockReason = &reason
	return nil
}

// UpdateContent меняет только текст; статус модерации не затрагивается.
func (c *Comment) UpdateContent(newContent string) {
	now := time.Now()
	c.Content = newContent
	c.UpdatedAt = &now
}

// CanBeEditedBy — редактировать может только автор и только в течение
// CommentEditWindow с момента создания. Роли здесь не учитываются.
func (c *Comment) CanBeEditedBy(userID int) bool {
	return c.AuthorID == userID && time.Since(c.CreatedAt) <= CommentEditWindow
}

// CanBeDeletedBy — автор, модератор или администратор, без окна по времени.
func (c *Comment) CanBeDeletedBy(userID int, roles []string) bool {
	if c.AuthorID == userID {
		return true
	}
	for _, role := range roles {
		if role == RoleModerator || role == RoleAdmin {
			return true
		}
	}
	return false
}

// swagger:model CreateCommentRequest
type CreateCommentRequest struct {
	ArticleID       int64  `json:"articleId"`
	ParentCommentID *int64 `json:"parentCommentId,omitempty"`
	Content         string `json:"content" example:"Отличная статья!"`
}

// swagger:model UpdateCommentRequest
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// swagger:model BlockCommentRequest
type BlockCommentRequest struct {
	Reason string `json:"reason" example:"Спам"`
}
