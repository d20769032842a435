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

type ArticleService interface {
	Create(ctx context.Context, authorID int, req models.CreateArticleRequest) (*models.Article, error)
	GetAll(ctx context.Context, page, pageSize int, filter repository.ArticleFilter) ([]*models.Article, int, error)
	GetByID(ctx context.Context, id int64, countView bool) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string, countView bool) (*models.Article, error)
	Update(ctx context.Context, id int64, actorID int, actorRoles []string, req models.UpdateArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, id int64, actorID int, actorRoles []string) error
	SetPublish(ctx context.Context, id int64, publish bool) (*models.Article, error)
	SetTags(ctx context.Context, id int64, actorID int, actorRoles []string, tagIDs []int64) error
	PreviewHTML(rawHTML string) string
}

type articleService struct {
	repo     repository.ArticleRepo
	tags     repository.ArticleTagRepo
	comments repository.CommentRepo
	policy   *bluemonday.Policy
}

func NewArticleService(repo repository.ArticleRepo, tags repository.ArticleTagRepo, comments repository.CommentRepo) ArticleService {
	p := bluemonday.UGCPolicy()
	p.AllowElements("img")
	p.AllowAttrs("src", "alt").OnElements("img")
	return &articleService{repo: repo, tags: tags, comments: comments, policy: p}
}

func (s *articleService) PreviewHTML(rawHTML string) string {
	// безопасно логируем только длины
	log := logger.WithCtx(context.Background())
	clean := s.policy.Sanitize(rawHTML)
	log.Debug("Предпросмотр HTML (sanitize)",
		zap.Int("raw_len", len(rawHTML)),
		zap.Int("clean_len", len(clean)),
	)
	return clean
}

func (s *articleService) validate(title, content, summary string) error {
	if l := utf8.RuneCountInString(title); l < 3 || l > 200 {
		return fmt.Errorf("%w: длина заголовка должна быть от 3 до 200 символов", apperr.ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: содержание статьи обязательно", apperr.ErrValidation)
	}
	if utf8.RuneCountInString(summary) > 500 {
		return fmt.Errorf("%w: краткое описание не может быть длиннее 500 символов", apperr.ErrValidation)
	}
	return nil
}

// resolveSlug выбирает явный slug или выводит его из заголовка
// и проверяет уникальность среди остальных статей.
func (s *articleService) resolveSlug(ctx context.Context, explicit, title string, excludeID int64) (string, error) {
	slug := strings.TrimSpace(explicit)
	if slug == "" {
		slug = models.Slugify(strings.TrimSpace(title))
	}
	taken, err := s.repo.IsSlugTaken(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("%w: статья с таким slug уже существует", apperr.ErrConflict)
	}
	return slug, nil
}

func (s *articleService) Create(ctx context.Context, authorID int, req models.CreateArticleRequest) (*models.Article, error) {
	log := logger.WithCtx(ctx)
	title := strings.TrimSpace(req.Title)
	log.Info("Создание статьи",
		zap.Int("author_id", authorID),
		zap.String("title", title),
		zap.Bool("publish", req.Publish),
	)

	if err := s.validate(title, req.Content, req.Summary); err != nil {
		log.Warn("Валидация статьи не пройдена", zap.Error(err))
		return nil, err
	}

	slug, err := s.resolveSlug(ctx, req.Slug, title, 0)
	if err != nil {
		log.Warn("Slug не принят", zap.Error(err))
		return nil, err
	}

	a := &models.Article{
		AuthorID:        authorID,
		Title:           title,
		Content:         s.policy.Sanitize(req.Content),
		Summary:         strPtr(req.Summary),
		Slug:            slug,
		ImageURL:        strPtr(req.ImageURL),
		MetaDescription: strPtr(req.MetaDescription),
		Keywords:        strPtr(req.Keywords),
		IsPublished:     req.Publish,
	}

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		log.Error("Ошибка создания статьи (repo)", zap.Error(err))
		return nil, err
	}

	if len(req.TagIDs) > 0 {
		if err := s.tags.ReplaceForArticle(ctx, created.ID, req.TagIDs, authorID); err != nil {
			log.Error("Ошибка привязки тегов", zap.Int64("id", created.ID), zap.Error(err))
			return nil, err
		}
	}

	if err := s.enrich(ctx, created); err != nil {
		return nil, err
	}

	log.Info("Статья создана", zap.Int64("id", created.ID), zap.String("slug", created.Slug))
	return created, nil
}

// enrich дополняет статью тегами и числом одобренных комментариев.
func (s *articleService) enrich(ctx context.Context, a *models.Article) error {
	tags, err := s.tags.ListTagsByArticle(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Tags = tags

	count, err := s.comments.CountApprovedByArticle(ctx, a.ID)
	if err != nil {
		return err
	}
	a.CommentsCount = count
	return nil
}

func (s *articleService) GetAll(ctx context.Context, page, pageSize int, filter repository.ArticleFilter) ([]*models.Article, int, error) {
	log := logger.WithCtx(ctx)
	offset := (page - 1) * pageSize

	list, total, err := s.repo.GetAll(ctx, pageSize, offset, filter)
	if err != nil {
		log.Error("Ошибка получения списка статей (repo)", zap.Error(err))
		return nil, 0, err
	}

	for _, a := range list {
		if err := s.enrich(ctx, a); err != nil {
			return nil, 0, err
		}
	}

	log.Debug("Список статей получен", zap.Int("count", len(list)), zap.Int("total", total))
	return list, total, nil
}

func (s *articleService) GetByID(ctx context.Context, id int64, countView bool) (*models.Article, error) {
	log := logger.WithCtx(ctx)

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
		}
		log.Error("Ошибка получения статьи (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	if countView {
		// Инкремент атомарный на стороне БД: параллельные просмотры не теряются.
		count, err := s.repo.IncrementViewCount(ctx, id)
		if err != nil {
			log.Error("Ошибка инкремента просмотров (repo)", zap.Int64("id", id), zap.Error(err))
			return nil, err
		}
		a.ViewCount = count
	}

	if err := s.enrich(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *articleService) GetBySlug(ctx context.Context, slug string, countView bool) (*models.Article, error) {
	a, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
		}
		return nil, err
	}
	return s.GetByID(ctx, a.ID, countView)
}

func canManageArticle(a *models.Article, actorID int, actorRoles []string) bool {
	if a.AuthorID == actorID {
		return true
	}
	for _, role := range actorRoles {
		if role == models.RoleAdmin {
			return true
		}
	}
	return false
}

func (s *articleService) Update(ctx context.Context, id int64, actorID int, actorRoles []string, req models.UpdateArticleRequest) (*models.Article, error) {
	log := logger.WithCtx(ctx)
	title := strings.TrimSpace(req.Title)
	log.Info("Обновление статьи", zap.Int64("id", id), zap.String("title", title))

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
		}
		return nil, err
	}

	if !canManageArticle(a, actorID, actorRoles) {
		log.Warn("Попытка редактировать чужую статью", zap.Int64("id", id), zap.Int("actor_id", actorID))
		return nil, fmt.Errorf("%w: редактировать статью может только автор или администратор", apperr.ErrForbidden)
	}

	if err := s.validate(title, req.Content, req.Summary); err != nil {
		return nil, err
	}

	slug, err := s.resolveSlug(ctx, req.Slug, title, id)
	if err != nil {
		return nil, err
	}

	a.Title = title
	a.Content = s.policy.Sanitize(req.Content)
	a.Summary = strPtr(req.Summary)
	a.Slug = slug
	a.ImageURL = strPtr(req.ImageURL)
	a.MetaDescription = strPtr(req.MetaDescription)
	a.Keywords = strPtr(req.Keywords)

	if req.Publish && !a.IsPublished {
		a.Publish()
	} else if !req.Publish && a.IsPublished {
		a.Unpublish()
	}

	if err := s.repo.Update(ctx, a); err != nil {
		log.Error("Ошибка обновления статьи (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	if req.TagIDs != nil {
		if err := s.tags.ReplaceForArticle(ctx, id, *req.TagIDs, actorID); err != nil {
			log.Error("Ошибка обновления тегов статьи", zap.Int64("id", id), zap.Error(err))
			return nil, err
		}
	}

	if err := s.enrich(ctx, a); err != nil {
		return nil, err
	}

	log.Info("Статья обновлена", zap.Int64("id", id), zap.Bool("published", a.IsPublished))
	return a, nil
}

func (s *articleService) Delete(ctx context.Context, id int64, actorID int, actorRoles []string) error {
	log := logger.WithCtx(ctx)

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
		}
		return err
	}

	if !canManageArticle(a, actorID, actorRoles) {
		return fmt.Errorf("%w: удалить статью может только автор или администратор", apperr.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("Ошибка удаления статьи (repo)", zap.Int64("id", id), zap.Error(err))
		return err
	}

	log.Info("Статья удалена", zap.Int64("id", id))
	return nil
}

func (s *articleService) SetPublish(ctx context.Context, id int64, publish bool) (*models.Article, error) {
	log := logger.WithCtx(ctx)
	log.Info("Изменение статуса публикации", zap.Int64("id", id), zap.Bool("publish", publish))

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		log.Error("Ошибка проверки существования статьи (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("ошибка проверки существования статьи: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
	}

	if err := s.repo.UpdatePublish(ctx, id, publish); err != nil {
		log.Error("Ошибка обновления статуса публикации (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, a); err != nil {
		return nil, err
	}

	log.Info("Статус публикации изменён", zap.Int64("id", id), zap.Bool("published", a.IsPublished))
	return a, nil
}

func (s *articleService) SetTags(ctx context.Context, id int64, actorID int, actorRoles []string, tagIDs []int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: статья не найдена", apperr.ErrNotFound)
		}
		return err
	}
	if !canManageArticle(a, actorID, actorRoles) {
		return fmt.Errorf("%w: менять теги статьи может только автор или администратор", apperr.ErrForbidden)
	}
	return s.tags.ReplaceForArticle(ctx, id, tagIDs, actorID)
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
