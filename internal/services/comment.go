package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"spaceblog/internal/apperr"
	"spaceblog/internal/logger"
	"spaceblog/internal/models"
	"spaceblog/internal/repository"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// RoleProvider отдаёт роли пользователя как набор — предикаты прав
// получают их явно, а не лезут в identity из сущностей.
type RoleProvider interface {
	GetRoles(ctx context.Context, userID int) ([]string, error)
}

// UserDirectory — минимум, который нужен от identity: существование
// пользователя и его бан-статус.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type CommentService interface {
	Create(ctx context.Context, authorID int, req models.CreateCommentRequest, ipAddress, userAgent string) (*models.Comment, error)
	GetAll(ctx context.Context, page, pageSize int, status *models.CommentStatus) ([]*models.Comment, int, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID int64, onlyApproved bool) ([]*models.Comment, error)
	Update(ctx context.Context, id int64, actorID int, req models.UpdateCommentRequest) (*models.Comment, error)
	Delete(ctx context.Context, id int64, actorID int) error
	Approve(ctx context.Context, id int64, moderatorID int) (*models.Comment, error)
	Block(ctx context.Context, id int64, moderatorID int, reason string) (*models.Comment, error)
}

type commentService struct {
	repo     repository.CommentRepo
	articles repository.ArticleRepo
	users    UserDirectory
	roles    RoleProvider
	policy   *bluemonday.Policy

	// Политика модерации: true — новые комментарии одобряются сразу.
	// По умолчанию false: комментарий ждёт решения модератора.
	autoApprove bool
}

func NewCommentService(
	repo repository.CommentRepo,
	articles repository.ArticleRepo,
	users UserDirectory,
	roles RoleProvider,
	autoApprove bool,
) CommentService {
	return &commentService{
		repo:        repo,
		articles:    articles,
		users:       users,
		roles:       roles,
		policy:      bluemonday.StrictPolicy(),
		autoApprove: autoApprove,
	}
}

func (s *commentService) Create(ctx context.Context, authorID int, req models.CreateCommentRequest, ipAddress, userAgent string) (*models.Comment, error) {
	log := logger.WithCtx(ctx)
	log.Info("Создание комментария",
		zap.Int("author_id", authorID),
		zap.Int64("article_id", req.ArticleID),
		zap.Bool("is_reply", req.ParentCommentID != nil),
	)

	content := strings.TrimSpace(req.Content)
	if l := utf8.RuneCountInString(content); l == 0 || l > 1000 {
		return nil, fmt.Errorf("%w: комментарий должен содержать от 1 до 1000 символов", apperr.ErrValidation)
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: автор не найден", apperr.ErrNotFound)
		}
		return nil, err
	}
	if author.IsBanned {
		log.Warn("Заблокированный пользователь пытается комментировать", zap.Int("author_id", authorID))
		return nil, fmt.Errorf("%w: заблокированные пользователи не могут оставлять комментарии", apperr.ErrForbidden)
	}

	exists, err := s.articles.Exists(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
	}

	if req.ParentCommentID != nil {
		parent, err := s.repo.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, fmt.Errorf("%w: родительский комментарий не найден", apperr.ErrValidation)
			}
			return nil, err
		}
		// Ответ обязан принадлежать той же статье, что и родитель.
		if parent.ArticleID != req.ArticleID {
			log.Warn("Ответ на комментарий другой статьи",
				zap.Int64("parent_article_id", parent.ArticleID),
				zap.Int64("article_id", req.ArticleID),
			)
			return nil, fmt.Errorf("%w: родительский комментарий принадлежит другой статье", apperr.ErrValidation)
		}
	}

	c := &models.Comment{
		ArticleID:       req.ArticleID,
		AuthorID:        authorID,
		ParentCommentID: req.ParentCommentID,
		Content:         s.policy.Sanitize(content),
		IsApproved:      s.autoApprove,
		IsBlocked:       false,
		IPAddress:       strPtr(ipAddress),
		UserAgent:       strPtr(userAgent),
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		log.Error("Ошибка создания комментария (repo)", zap.Error(err))
		return nil, err
	}
	created.AuthorName = author.DisplayName()

	log.Info("Комментарий создан",
		zap.Int64("id", created.ID),
		zap.String("status", string(created.Status())),
	)
	return created, nil
}

func (s *commentService) GetAll(ctx context.Context, page, pageSize int, status *models.CommentStatus) ([]*models.Comment, int, error) {
	log := logger.WithCtx(ctx)
	offset := (page - 1) * pageSize

	list, total, err := s.repo.GetAll(ctx, pageSize, offset, status)
	if err != nil {
		log.Error("Ошибка получения комментариев (repo)", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

func (s *commentService) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: комментарий не найден", apperr.ErrNotFound)
		}
		return nil, err
	}

	// Ответы материализуются запросом, а не хранятся в объекте.
	all, err := s.repo.ListByArticle(ctx, c.ArticleID, true)
	if err != nil {
		return nil, err
	}
	for _, reply := range all {
		if reply.ParentCommentID != nil && *reply.ParentCommentID == c.ID {
			c.Replies = append(c.Replies, reply)
		}
	}
	c.RepliesCount = len(c.Replies)
	return c, nil
}

// ListByArticle собирает двухуровневое дерево по adjacency-связи:
// корневые комментарии с ответами. Счётчик ответов — только одобренные.
func (s *commentService) ListByArticle(ctx context.Context, articleID int64, onlyApproved bool) ([]*models.Comment, error) {
	exists, err := s.articles.Exists(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
	}

	flat, err := s.repo.ListByArticle(ctx, articleID, onlyApproved)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Comment, len(flat))
	var roots []*models.Comment
	for _, c := range flat {
		if c.ParentCommentID == nil {
			byID[c.ID] = c
			roots = append(roots, c)
		}
	}
	for _, c := range flat {
		if c.ParentCommentID == nil {
			continue
		}
		parent, ok := byID[*c.ParentCommentID]
		if !ok {
			// Ответ на ответ хранится, но не показывается.
			continue
		}
		parent.Replies = append(parent.Replies, c)
		if c.IsApproved {
			parent.RepliesCount++
		}
	}
	return roots, nil
}

func (s *commentService) Update(ctx context.Context, id int64, actorID int, req models.UpdateCommentRequest) (*models.Comment, error) {
	log := logger.WithCtx(ctx)

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: комментарий не найден", apperr.ErrNotFound)
		}
		return nil, err
	}

	if !c.CanBeEditedBy(actorID) {
		log.Warn("Отказ в редактировании комментария",
			zap.Int64("id", id),
			zap.Int("actor_id", actorID),
		)
		return nil, fmt.Errorf("%w: время редактирования комментария истекло (15 минут)", apperr.ErrForbidden)
	}

	content := strings.TrimSpace(req.Content)
	if l := utf8.RuneCountInString(content); l == 0 || l > 1000 {
		return nil, fmt.Errorf("%w: комментарий должен содержать от 1 до 1000 символов", apperr.ErrValidation)
	}

	c.UpdateContent(s.policy.Sanitize(content))
	if err := s.repo.UpdateContent(ctx, c); err != nil {
		log.Error("Ошибка обновления комментария (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	log.Info("Комментарий обновлён", zap.Int64("id", id))
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, id int64, actorID int) error {
	log := logger.WithCtx(ctx)

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: комментарий не найден", apperr.ErrNotFound)
		}
		return err
	}

	roles, err := s.roles.GetRoles(ctx, actorID)
	if err != nil {
		return err
	}

	if !c.CanBeDeletedBy(actorID, roles) {
		log.Warn("Отказ в удалении комментария",
			zap.Int64("id", id),
			zap.Int("actor_id", actorID),
			zap.Strings("roles", roles),
		)
		return fmt.Errorf("%w: недостаточно прав для удаления комментария", apperr.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("Ошибка удаления комментария (repo)", zap.Int64("id", id), zap.Error(err))
		return err
	}

	log.Info("Комментарий удалён", zap.Int64("id", id), zap.Int("actor_id", actorID))
	return nil
}

func (s *commentService) Approve(ctx context.Context, id int64, moderatorID int) (*models.Comment, error) {
	log := logger.WithCtx(ctx)

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: комментарий не найден", apperr.ErrNotFound)
		}
		return nil, err
	}

	c.Approve(moderatorID)
	if err := s.repo.UpdateModeration(ctx, c); err != nil {
		log.Error("Ошибка одобрения комментария (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	log.Info("Комментарий одобрен", zap.Int64("id", id), zap.Int("moderator_id", moderatorID))
	return c, nil
}

func (s *commentService) Block(ctx context.Context, id int64, moderatorID int, reason string) (*models.Comment, error) {
	log := logger.WithCtx(ctx)

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: комментарий не найден", apperr.ErrNotFound)
		}
		return nil, err
	}

	if err := c.Block(moderatorID, reason); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}
	if err := s.repo.UpdateModeration(ctx, c); err != nil {
		log.Error("Ошибка блокировки комментария (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	log.Info("Комментарий заблокирован",
		zap.Int64("id", id),
		zap.Int("moderator_id", moderatorID),
		zap.String("reason", reason),
	)
	return c, nil
}
