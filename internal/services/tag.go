package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"spaceblog/internal/apperr"
	"spaceblog/internal/logger"
	"spaceblog/internal/models"
	"spaceblog/internal/repository"

	"go.uber.org/zap"
)

var colorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

type TagService interface {
	Create(ctx context.Context, creatorID int, req models.CreateTagRequest) (*models.Tag, error)
	GetAll(ctx context.Context, includeInactive bool) ([]*models.Tag, error)
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	Update(ctx context.Context, id int64, req models.UpdateTagRequest) (*models.Tag, error)
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type tagService struct {
	repo repository.TagRepo
}

func NewTagService(repo repository.TagRepo) TagService {
	return &tagService{repo: repo}
}

func validateTag(name, color string) error {
	if l := utf8.RuneCountInString(name); l == 0 || l > 50 {
		return fmt.Errorf("%w: название тега должно содержать от 1 до 50 символов", apperr.ErrValidation)
	}
	if color != "" && !colorRe.MatchString(color) {
		return fmt.Errorf("%w: некорректный формат цвета", apperr.ErrValidation)
	}
	return nil
}

func (s *tagService) Create(ctx context.Context, creatorID int, req models.CreateTagRequest) (*models.Tag, error) {
	log := logger.WithCtx(ctx)
	name := strings.TrimSpace(req.Name)
	log.Info("Создание тега", zap.String("name", name), zap.Int("creator_id", creatorID))

	if err := validateTag(name, req.Color); err != nil {
		log.Warn("Валидация тега не пройдена", zap.Error(err))
		return nil, err
	}

	taken, err := s.repo.IsNameTaken(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: тег с таким названием уже существует", apperr.ErrConflict)
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = models.Slugify(name)
	}

	color := req.Color
	if color == "" {
		color = models.DefaultTagColor
	}

	t := &models.Tag{
		Name:        name,
		Slug:        slug,
		Description: strPtr(req.Description),
		Color:       color,
		Icon:        strPtr(req.Icon),
		IsActive:    true,
		SortOrder:   req.SortOrder,
		CreatedByID: &creatorID,
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		log.Error("Ошибка создания тега (repo)", zap.Error(err))
		return nil, err
	}

	log.Info("Тег создан", zap.Int64("id", created.ID), zap.String("slug", created.Slug))
	return created, nil
}

func (s *tagService) GetAll(ctx context.Context, includeInactive bool) ([]*models.Tag, error) {
	list, err := s.repo.GetAll(ctx, !includeInactive)
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка получения тегов (repo)", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *tagService) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: тег не найден", apperr.ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

func (s *tagService) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	t, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: тег не найден", apperr.ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

func (s *tagService) Update(ctx context.Context, id int64, req models.UpdateTagRequest) (*models.Tag, error) {
	log := logger.WithCtx(ctx)
	name := strings.TrimSpace(req.Name)
	log.Info("Обновление тега", zap.Int64("id", id), zap.String("name", name))

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: тег не найден", apperr.ErrNotFound)
		}
		return nil, err
	}

	if err := validateTag(name, req.Color); err != nil {
		return nil, err
	}

	// Уникальность имени без учёта регистра, сам тег из проверки исключается.
	taken, err := s.repo.IsNameTaken(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: тег с таким названием уже существует", apperr.ErrConflict)
	}

	t.Name = name
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		t.Slug = slug
	} else {
		t.Slug = t.GenerateSlug()
	}
	t.Description = strPtr(req.Description)
	if req.Color != "" {
		t.Color = req.Color
	}
	t.Icon = strPtr(req.Icon)
	t.SortOrder = req.SortOrder

	if err := s.repo.Update(ctx, t); err != nil {
		log.Error("Ошибка обновления тега (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	log.Info("Тег обновлён", zap.Int64("id", id))
	return t, nil
}

// Delete отклоняет удаление тега, пока на него ссылается хотя бы одна
// статья — независимо от активности тега.
func (s *tagService) Delete(ctx context.Context, id int64) error {
	log := logger.WithCtx(ctx)

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: тег не найден", apperr.ErrNotFound)
		}
		return err
	}

	usage, err := s.repo.UsageCount(ctx, id)
	if err != nil {
		return err
	}
	if usage > 0 {
		log.Warn("Попытка удалить используемый тег", zap.Int64("id", id), zap.Int("usage", usage))
		return fmt.Errorf("%w: нельзя удалить тег, который используется в статьях", apperr.ErrConflict)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("Ошибка удаления тега (repo)", zap.Int64("id", id), zap.Error(err))
		return err
	}

	log.Info("Тег удалён", zap.Int64("id", id), zap.String("name", t.Name))
	return nil
}

func (s *tagService) SetActive(ctx context.Context, id int64, active bool) error {
	log := logger.WithCtx(ctx)

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: тег не найден", apperr.ErrNotFound)
		}
		return err
	}

	if active {
		t.Activate()
	} else {
		t.Deactivate()
	}

	if err := s.repo.SetActive(ctx, id, t.IsActive); err != nil {
		log.Error("Ошибка изменения активности тега (repo)", zap.Int64("id", id), zap.Error(err))
		return err
	}

	log.Info("Активность тега изменена", zap.Int64("id", id), zap.Bool("active", active))
	return nil
}
