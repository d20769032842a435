package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"spaceblog/internal/models"
)

type CommentRepo interface {
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	GetAll(ctx context.Context, limit, offset int, status *models.CommentStatus) ([]*models.Comment, int, error)
	ListByArticle(ctx context.Context, articleID int64, onlyApproved bool) ([]*models.Comment, error)
	CountApprovedByArticle(ctx context.Context, articleID int64) (int, error)
	UpdateContent(ctx context.Context, c *models.Comment) error
	UpdateModeration(ctx context.Context, c *models.Comment) error
	Delete(ctx context.Context, id int64) error
}

type commentRepo struct{ db *pgxpool.Pool }

func NewCommentRepo(db *pgxpool.Pool) CommentRepo { return &commentRepo{db: db} }

const commentColumns = `c.id, c.article_id, c.author_id, c.parent_comment_id, c.content,
	c.is_approved, c.is_blocked, c.moderated_at, c.moderated_by_id, c.block_reason,
	c.ip_address, c.user_agent, c.created_at, c.updated_at`

func scanComment(row interface{ Scan(...any) error }, c *models.Comment) error {
	return row.Scan(
		&c.ID, &c.ArticleID, &c.AuthorID, &c.ParentCommentID, &c.Content,
		&c.IsApproved, &c.IsBlocked, &c.ModeratedAt, &c.ModeratedByID, &c.BlockReason,
		&c.IPAddress, &c.UserAgent, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *commentRepo) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	const q = `
		INSERT INTO comments (article_id, author_id, parent_comment_id, content, is_approved, is_blocked, ip_address, user_agent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`
	if err := r.db.QueryRow(ctx, q,
		c.ArticleID,
		c.AuthorID,
		c.ParentCommentID,
		c.Content,
		c.IsApproved,
		c.IsBlocked,
		c.IPAddress,
		c.UserAgent,
	).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	q := `SELECT ` + commentColumns + `, COALESCE(u.full_name, u.username)
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1`

	var c models.Comment
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&c.ID, &c.ArticleID, &c.AuthorID, &c.ParentCommentID, &c.Content,
		&c.IsApproved, &c.IsBlocked, &c.ModeratedAt, &c.ModeratedByID, &c.BlockReason,
		&c.IPAddress, &c.UserAgent, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetAll — очередь модерации: все комментарии, свежие сверху,
// с фильтром по производному статусу.
func (r *commentRepo) GetAll(ctx context.Context, limit, offset int, status *models.CommentStatus) ([]*models.Comment, int, error) {
	where := []string{}
	args := []interface{}{}
	i := 1

	if status != nil {
		switch *status {
		case models.CommentPending:
			where = append(where, "NOT c.is_approved AND NOT c.is_blocked")
		case models.CommentApproved:
			where = append(where, "c.is_approved")
		case models.CommentBlocked:
			where = append(where, "c.is_blocked")
		}
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM comments c"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + commentColumns + `, COALESCE(u.full_name, u.username)
		FROM comments c
		JOIN users u ON u.id = c.author_id` + cond +
		fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.ArticleID, &c.AuthorID, &c.ParentCommentID, &c.Content,
			&c.IsApproved, &c.IsBlocked, &c.ModeratedAt, &c.ModeratedByID, &c.BlockReason,
			&c.IPAddress, &c.UserAgent, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName,
		); err != nil {
			return nil, 0, err
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByArticle возвращает комментарии статьи плоским списком
// (и корневые, и ответы) — дерево собирает сервис по parent_comment_id.
func (r *commentRepo) ListByArticle(ctx context.Context, articleID int64, onlyApproved bool) ([]*models.Comment, error) {
	q := `SELECT ` + commentColumns + `, COALESCE(u.full_name, u.username)
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.article_id = $1`
	if onlyApproved {
		q += " AND c.is_approved"
	}
	q += " ORDER BY c.created_at ASC"

	rows, err := r.db.Query(ctx, q, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.ArticleID, &c.AuthorID, &c.ParentCommentID, &c.Content,
			&c.IsApproved, &c.IsBlocked, &c.ModeratedAt, &c.ModeratedByID, &c.BlockReason,
			&c.IPAddress, &c.UserAgent, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName,
		); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// CountApprovedByArticle — «количество комментариев» везде означает
// только одобренные: pending и заблокированные не считаются.
func (r *commentRepo) CountApprovedByArticle(ctx context.Context, articleID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM comments WHERE article_id = $1 AND is_approved`
	var count int
	if err := r.db.QueryRow(ctx, q, articleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *commentRepo) UpdateContent(ctx context.Context, c *models.Comment) error {
	const q = `UPDATE comments SET content=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.db.Exec(ctx, q, c.Content, c.ID)
	return err
}

// UpdateModeration пишет все поля перехода одним UPDATE —
// состояние не применяется частично.
func (r *commentRepo) UpdateModeration(ctx context.Context, c *models.Comment) error {
	const q = `
		UPDATE comments
		SET is_approved=$1, is_blocked=$2, moderated_at=$3, moderated_by_id=$4, block_reason=$5
		WHERE id=$6
	`
	_, err := r.db.Exec(ctx, q, c.IsApproved, c.IsBlocked, c.ModeratedAt, c.ModeratedByID, c.BlockReason, c.ID)
	return err
}

func (r *commentRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM comments WHERE id=$1", id)
	return err
}
