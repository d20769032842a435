package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"spaceblog/internal/apperr"
	"spaceblog/internal/models"

	"github.com/jackc/pgx/v5"
)

// Мок-репозиторий тегов: usage задаётся тестом напрямую.
type mockTagRepo struct {
	mu     sync.Mutex
	tags   map[int64]*models.Tag
	usage  map[int64]int
	nextID int64
}

func newMockTagRepo() *mockTagRepo {
	return &mockTagRepo{tags: make(map[int64]*models.Tag), usage: make(map[int64]int)}
}

func (m *mockTagRepo) Create(_ context.Context, t *models.Tag) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	m.tags[t.ID] = t
	return t, nil
}

func (m *mockTagRepo) GetAll(_ context.Context, onlyActive bool) ([]*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Tag
	for _, t := range m.tags {
		if onlyActive && !t.IsActive {
			continue
		}
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *mockTagRepo) GetByID(_ context.Context, id int64) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockTagRepo) GetBySlug(_ context.Context, slug string) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTagRepo) Update(_ context.Context, t *models.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.tags[t.ID] = t
	return nil
}

func (m *mockTagRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tags, id)
	return nil
}

func (m *mockTagRepo) IsNameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags {
		if t.ID != excludeID && strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTagRepo) UsageCount(_ context.Context, tagID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage[tagID], nil
}

func (m *mockTagRepo) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.IsActive = active
	return nil
}

func TestTagCreate_Defaults(t *testing.T) {
	repo := newMockTagRepo()
	svc := NewTagService(repo)

	tag, err := svc.Create(context.Background(), 1, models.CreateTagRequest{Name: "космос"})
	if err != nil {
		t.Fatalf("создание тега: %v", err)
	}
	if tag.Color != models.DefaultTagColor {
		t.Fatalf("ожидали цвет по умолчанию %s, получили %s", models.DefaultTagColor, tag.Color)
	}
	if !tag.IsActive {
		t.Fatal("новый тег должен быть активным")
	}
	if tag.Slug != "kosmos" {
		t.Fatalf("ожидали slug %q, получили %q", "kosmos", tag.Slug)
	}
}

func TestTagCreate_NameConflictCaseInsensitive(t *testing.T) {
	repo := newMockTagRepo()
	svc := NewTagService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, models.CreateTagRequest{Name: "Космос"}); err != nil {
		t.Fatalf("первый тег: %v", err)
	}

	_, err := svc.Create(ctx, 1, models.CreateTagRequest{Name: "космос"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("дубликат имени без учёта регистра: ожидали ErrConflict, получили %v", err)
	}
}

func TestTagCreate_ColorValidation(t *testing.T) {
	repo := newMockTagRepo()
	svc := NewTagService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, models.CreateTagRequest{Name: "красный", Color: "red"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("некорректный цвет: ожидали ErrValidation, получили %v", err)
	}
	if _, err := svc.Create(ctx, 1, models.CreateTagRequest{Name: "красный", Color: "#ff0000"}); err != nil {
		t.Fatalf("валидный цвет отклонён: %v", err)
	}
}

func TestTagDelete_InUse(t *testing.T) {
	repo := newMockTagRepo()
	svc := NewTagService(repo)
	ctx := context.Background()

	tag, _ := svc.Create(ctx, 1, models.CreateTagRequest{Name: "занятый"})
	repo.usage[tag.ID] = 3

	if err := svc.Delete(ctx, tag.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("используемый тег: ожидали ErrConflict, получили %v", err)
	}

	repo.usage[tag.ID] = 0
	if err := svc.Delete(ctx, tag.ID); err != nil {
		t.Fatalf("свободный тег должен удаляться: %v", err)
	}
}

func TestTagUpdate_SlugRederived(t *testing.T) {
	repo := newMockTagRepo()
	svc := NewTagService(repo)
	ctx := context.Background()

	tag, _ := svc.Create(ctx, 1, models.CreateTagRequest{Name: "старое имя"})

	upd, err := svc.Update(ctx, tag.ID, models.UpdateTagRequest{Name: "новое имя"})
	if err != nil {
		t.Fatalf("обновление: %v", err)
	}
	if upd.Slug != "novoe-imya" {
		t.Fatalf("slug должен перестроиться из нового имени, получили %q", upd.Slug)
	}

	// Обновление без смены имени не конфликтует с самим собой.
	if _, err := svc.Update(ctx, tag.ID, models.UpdateTagRequest{Name: "новое имя"}); err != nil {
		t.Fatalf("повторное обновление тем же именем: %v", err)
	}
}

func TestTagSetActive(t *testing.T) {
	repo := newMockTagRepo()
	svc := NewTagService(repo)
	ctx := context.Background()

	tag, _ := svc.Create(ctx, 1, models.CreateTagRequest{Name: "временный"})

	if err := svc.SetActive(ctx, tag.ID, false); err != nil {
		t.Fatalf("деактивация: %v", err)
	}

	active, _ := svc.GetAll(ctx, false)
	if len(active) != 0 {
		t.Fatal("скрытый тег не должен попадать в публичный список")
	}

	all, _ := svc.GetAll(ctx, true)
	if len(all) != 1 {
		t.Fatal("скрытый тег должен быть виден с includeInactive")
	}
}

func TestTagGetByID_NotFound(t *testing.T) {
	svc := NewTagService(newMockTagRepo())

	if _, err := svc.GetByID(context.Background(), 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}
