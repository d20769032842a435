package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"spaceblog/internal/apperr"
	"spaceblog/internal/models"
	"spaceblog/internal/repository"

	"github.com/jackc/pgx/v5"
)

// Мок-репозиторий статей (заглушка)
type mockArticleRepo struct {
	mu       sync.Mutex
	articles map[int64]*models.Article
	nextID   int64
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{articles: make(map[int64]*models.Article)}
}

func (m *mockArticleRepo) Create(_ context.Context, a *models.Article) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	if a.IsPublished && a.PublishedAt == nil {
		now := time.Now()
		a.PublishedAt = &now
	}
	m.articles[a.ID] = a
	return a, nil
}

func (m *mockArticleRepo) GetAll(_ context.Context, limit, offset int, filter repository.ArticleFilter) ([]*models.Article, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Article
	for _, a := range m.articles {
		if filter.OnlyPublished && !a.IsPublished {
			continue
		}
		if filter.AuthorID != nil && a.AuthorID != *filter.AuthorID {
			continue
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockArticleRepo) GetByID(_ context.Context, id int64) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockArticleRepo) GetBySlug(_ context.Context, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockArticleRepo) Update(_ context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.articles[a.ID] = a
	return nil
}

func (m *mockArticleRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.articles, id)
	return nil
}

func (m *mockArticleRepo) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.articles[id]
	return ok, nil
}

func (m *mockArticleRepo) IsSlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Slug == slug && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockArticleRepo) UpdatePublish(_ context.Context, id int64, publish bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if publish {
		a.Publish()
	} else {
		a.Unpublish()
	}
	return nil
}

func (m *mockArticleRepo) IncrementViewCount(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	a.ViewCount++
	return a.ViewCount, nil
}

// Мок-репозиторий связей статья—тег
type mockArticleTagRepo struct {
	mu    sync.Mutex
	links map[int64][]int64
}

func newMockArticleTagRepo() *mockArticleTagRepo {
	return &mockArticleTagRepo{links: make(map[int64][]int64)}
}

func (m *mockArticleTagRepo) ReplaceForArticle(_ context.Context, articleID int64, tagIDs []int64, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[articleID] = append([]int64(nil), tagIDs...)
	return nil
}

func (m *mockArticleTagRepo) ListTagsByArticle(_ context.Context, articleID int64) ([]*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Tag
	for _, id := range m.links[articleID] {
		list = append(list, &models.Tag{ID: id, IsActive: true})
	}
	return list, nil
}

// Мок-репозиторий комментариев
type mockCommentRepo struct {
	mu       sync.Mutex
	comments map[int64]*models.Comment
	nextID   int64
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[int64]*models.Comment)}
}

func (m *mockCommentRepo) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	m.comments[c.ID] = c
	return c, nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockCommentRepo) GetAll(_ context.Context, limit, offset int, status *models.CommentStatus) ([]*models.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Comment
	for _, c := range m.comments {
		if status != nil && c.Status() != *status {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockCommentRepo) ListByArticle(_ context.Context, articleID int64, onlyApproved bool) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Comment
	for _, c := range m.comments {
		if c.ArticleID != articleID {
			continue
		}
		if onlyApproved && (!c.IsApproved || c.IsBlocked) {
			continue
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *mockCommentRepo) CountApprovedByArticle(_ context.Context, articleID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.comments {
		if c.ArticleID == articleID && c.IsApproved && !c.IsBlocked {
			count++
		}
	}
	return count, nil
}

func (m *mockCommentRepo) UpdateContent(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.comments[c.ID] = c
	return nil
}

func (m *mockCommentRepo) UpdateModeration(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.comments[c.ID] = c
	return nil
}

func (m *mockCommentRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.comments, id)
	return nil
}

func newArticleServiceForTest() (ArticleService, *mockArticleRepo) {
	repo := newMockArticleRepo()
	return NewArticleService(repo, newMockArticleTagRepo(), newMockCommentRepo()), repo
}

func TestArticleCreate_SlugGenerated(t *testing.T) {
	svc, _ := newArticleServiceForTest()

	a, err := svc.Create(context.Background(), 1, models.CreateArticleRequest{
		Title:   "Привет Мир",
		Content: "<p>Текст статьи</p>",
	})
	if err != nil {
		t.Fatalf("ошибка создания статьи: %v", err)
	}
	if a.Slug != "privet-mir" {
		t.Fatalf("ожидали slug %q, получили %q", "privet-mir", a.Slug)
	}
	if a.IsPublished {
		t.Fatal("без publish статья создаётся черновиком")
	}
}

func TestArticleCreate_SlugConflict(t *testing.T) {
	svc, _ := newArticleServiceForTest()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Привет Мир", Content: "раз"}); err != nil {
		t.Fatalf("первая статья: %v", err)
	}

	_, err := svc.Create(ctx, 2, models.CreateArticleRequest{Title: "Привет Мир", Content: "два"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("ожидали ErrConflict при дублировании slug, получили %v", err)
	}
}

func TestArticleCreate_Validation(t *testing.T) {
	svc, _ := newArticleServiceForTest()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, models.CreateArticleRequest{Title: "ab", Content: "x"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("короткий заголовок: ожидали ErrValidation, получили %v", err)
	}
	if _, err := svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Заголовок", Content: "   "}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("пустое содержание: ожидали ErrValidation, получили %v", err)
	}
}

func TestArticleUpdate_ForbiddenForStranger(t *testing.T) {
	svc, _ := newArticleServiceForTest()
	ctx := context.Background()

	a, err := svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Моя статья", Content: "текст"})
	if err != nil {
		t.Fatalf("создание: %v", err)
	}

	_, err = svc.Update(ctx, a.ID, 2, []string{models.RoleUser}, models.UpdateArticleRequest{
		Title: "Чужая правка", Content: "текст",
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}

	// Администратор может править чужую статью.
	if _, err := svc.Update(ctx, a.ID, 2, []string{models.RoleAdmin}, models.UpdateArticleRequest{
		Title: "Правка админа", Content: "текст",
	}); err != nil {
		t.Fatalf("администратору отказано: %v", err)
	}
}

func TestArticleUpdate_PublishTransition(t *testing.T) {
	svc, repo := newArticleServiceForTest()
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Черновик статьи", Content: "текст"})

	upd, err := svc.Update(ctx, a.ID, 1, nil, models.UpdateArticleRequest{
		Title: "Черновик статьи", Content: "текст", Publish: true,
	})
	if err != nil {
		t.Fatalf("обновление: %v", err)
	}
	if !upd.IsPublished || upd.PublishedAt == nil {
		t.Fatal("после publish=true ожидали опубликованную статью с published_at")
	}

	upd, err = svc.Update(ctx, a.ID, 1, nil, models.UpdateArticleRequest{
		Title: "Черновик статьи", Content: "текст", Publish: false,
	})
	if err != nil {
		t.Fatalf("снятие с публикации: %v", err)
	}
	if upd.IsPublished || upd.PublishedAt != nil {
		t.Fatal("после publish=false ожидали черновик без published_at")
	}

	stored, _ := repo.GetByID(ctx, a.ID)
	if stored.IsPublished {
		t.Fatal("изменение не сохранилось в репозитории")
	}
}

func TestArticleSetPublish_NotFound(t *testing.T) {
	svc, _ := newArticleServiceForTest()

	_, err := svc.SetPublish(context.Background(), 999, true)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestArticleGetByID_ConcurrentViews(t *testing.T) {
	svc, repo := newArticleServiceForTest()
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Популярная статья", Content: "текст"})

	const viewers = 50
	var wg sync.WaitGroup
	wg.Add(viewers)
	for i := 0; i < viewers; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.GetByID(ctx, a.ID, true); err != nil {
				t.Errorf("просмотр: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := repo.GetByID(ctx, a.ID)
	if stored.ViewCount != viewers {
		t.Fatalf("потеряны просмотры: ожидали %d, получили %d", viewers, stored.ViewCount)
	}
}

func TestArticleGetAll_OnlyPublished(t *testing.T) {
	svc, _ := newArticleServiceForTest()
	ctx := context.Background()

	_, _ = svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Черновик номер один", Content: "текст"})
	_, _ = svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Опубликованная статья", Content: "текст", Publish: true})

	list, total, err := svc.GetAll(ctx, 1, 20, repository.ArticleFilter{OnlyPublished: true})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("ожидали одну опубликованную статью, получили %d (total=%d)", len(list), total)
	}
	if list[0].Title != "Опубликованная статья" {
		t.Fatalf("в выдаче не та статья: %s", list[0].Title)
	}
}

func TestArticleDelete_Forbidden(t *testing.T) {
	svc, _ := newArticleServiceForTest()
	ctx := context.Background()

	a, _ := svc.Create(ctx, 1, models.CreateArticleRequest{Title: "Моя статья", Content: "текст"})

	if err := svc.Delete(ctx, a.ID, 2, []string{models.RoleUser}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
	if err := svc.Delete(ctx, a.ID, 1, nil); err != nil {
		t.Fatalf("автору отказано в удалении: %v", err)
	}
}
