package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spaceblog/internal/apperr"
	"spaceblog/internal/models"

	"github.com/jackc/pgx/v5"
)

// Мок identity: пользователи и их роли.
type mockUsers struct {
	users map[int]*models.User
}

func (m *mockUsers) GetUserByID(_ context.Context, id int) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUsers) GetRoles(_ context.Context, id int) ([]string, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return []string{u.Role}, nil
}

func newCommentServiceForTest(autoApprove bool) (CommentService, *mockCommentRepo, *mockArticleRepo, *mockUsers) {
	comments := newMockCommentRepo()
	articles := newMockArticleRepo()
	users := &mockUsers{users: map[int]*models.User{
		1: {ID: 1, Username: "author", Role: models.RoleUser},
		2: {ID: 2, Username: "stranger", Role: models.RoleUser},
		3: {ID: 3, Username: "mod", Role: models.RoleModerator},
		4: {ID: 4, Username: "banned", Role: models.RoleUser, IsBanned: true},
	}}
	svc := NewCommentService(comments, articles, users, users, autoApprove)
	return svc, comments, articles, users
}

func seedArticle(t *testing.T, articles *mockArticleRepo) *models.Article {
	t.Helper()
	a, err := articles.Create(context.Background(), &models.Article{
		AuthorID: 1, Title: "Статья", Content: "текст", Slug: "statya", IsPublished: true,
	})
	if err != nil {
		t.Fatalf("подготовка статьи: %v", err)
	}
	return a
}

func TestCommentCreate_DefaultPending(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(false)
	a := seedArticle(t, articles)

	c, err := svc.Create(context.Background(), 1, models.CreateCommentRequest{
		ArticleID: a.ID, Content: "Отличная статья!",
	}, "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("создание комментария: %v", err)
	}
	if c.Status() != models.CommentPending {
		t.Fatalf("по умолчанию комментарий ждёт модерации, получили %s", c.Status())
	}
}

func TestCommentCreate_AutoApprove(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(true)
	a := seedArticle(t, articles)

	c, err := svc.Create(context.Background(), 1, models.CreateCommentRequest{
		ArticleID: a.ID, Content: "Сразу видно",
	}, "", "")
	if err != nil {
		t.Fatalf("создание комментария: %v", err)
	}
	if c.Status() != models.CommentApproved {
		t.Fatalf("при автоодобрении ожидали approved, получили %s", c.Status())
	}
}

func TestCommentCreate_BannedAuthor(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(false)
	a := seedArticle(t, articles)

	_, err := svc.Create(context.Background(), 4, models.CreateCommentRequest{
		ArticleID: a.ID, Content: "Привет",
	}, "", "")
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("заблокированный автор: ожидали ErrForbidden, получили %v", err)
	}
}

func TestCommentCreate_ArticleNotFound(t *testing.T) {
	svc, _, _, _ := newCommentServiceForTest(false)

	_, err := svc.Create(context.Background(), 1, models.CreateCommentRequest{
		ArticleID: 999, Content: "Куда?",
	}, "", "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestCommentCreate_ParentFromOtherArticle(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(true)
	first := seedArticle(t, articles)
	second, _ := articles.Create(context.Background(), &models.Article{
		AuthorID: 1, Title: "Другая", Content: "текст", Slug: "drugaya", IsPublished: true,
	})

	parent, err := svc.Create(context.Background(), 1, models.CreateCommentRequest{
		ArticleID: first.ID, Content: "Корневой",
	}, "", "")
	if err != nil {
		t.Fatalf("родительский комментарий: %v", err)
	}

	_, err = svc.Create(context.Background(), 2, models.CreateCommentRequest{
		ArticleID: second.ID, ParentCommentID: &parent.ID, Content: "Ответ не туда",
	}, "", "")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("ответ в другой статье: ожидали ErrValidation, получили %v", err)
	}
}

func TestCommentUpdate_ExpiredWindow(t *testing.T) {
	svc, comments, articles, _ := newCommentServiceForTest(true)
	a := seedArticle(t, articles)

	c, _ := svc.Create(context.Background(), 1, models.CreateCommentRequest{
		ArticleID: a.ID, Content: "Свежий",
	}, "", "")

	// В пределах окна автор может править.
	if _, err := svc.Update(context.Background(), c.ID, 1, models.UpdateCommentRequest{Content: "Поправил"}); err != nil {
		t.Fatalf("правка в пределах окна: %v", err)
	}

	// Сдвигаем время создания за пределы окна.
	stored, _ := comments.GetByID(context.Background(), c.ID)
	stored.CreatedAt = time.Now().Add(-models.CommentEditWindow - time.Minute)

	if _, err := svc.Update(context.Background(), c.ID, 1, models.UpdateCommentRequest{Content: "Поздно"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("просроченная правка: ожидали ErrForbidden, получили %v", err)
	}
}

func TestCommentDelete_Permissions(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(true)
	a := seedArticle(t, articles)
	ctx := context.Background()

	c, _ := svc.Create(ctx, 1, models.CreateCommentRequest{ArticleID: a.ID, Content: "Первый"}, "", "")

	if err := svc.Delete(ctx, c.ID, 2); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("чужой пользователь: ожидали ErrForbidden, получили %v", err)
	}
	if err := svc.Delete(ctx, c.ID, 3); err != nil {
		t.Fatalf("модератору отказано: %v", err)
	}

	c2, _ := svc.Create(ctx, 1, models.CreateCommentRequest{ArticleID: a.ID, Content: "Второй"}, "", "")
	if err := svc.Delete(ctx, c2.ID, 1); err != nil {
		t.Fatalf("автору отказано: %v", err)
	}
}

func TestCommentApproveBlock(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(false)
	a := seedArticle(t, articles)
	ctx := context.Background()

	c, _ := svc.Create(ctx, 1, models.CreateCommentRequest{ArticleID: a.ID, Content: "На модерацию"}, "", "")

	approved, err := svc.Approve(ctx, c.ID, 3)
	if err != nil {
		t.Fatalf("одобрение: %v", err)
	}
	if approved.Status() != models.CommentApproved {
		t.Fatalf("ожидали approved, получили %s", approved.Status())
	}

	// Повторное одобрение не ломает состояние.
	if _, err := svc.Approve(ctx, c.ID, 3); err != nil {
		t.Fatalf("повторное одобрение: %v", err)
	}

	blocked, err := svc.Block(ctx, c.ID, 3, "оскорбления")
	if err != nil {
		t.Fatalf("блокировка: %v", err)
	}
	if blocked.Status() != models.CommentBlocked || blocked.BlockReason == nil {
		t.Fatal("ожидали blocked с причиной")
	}

	if _, err := svc.Block(ctx, c.ID, 3, "  "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("пустая причина: ожидали ErrValidation, получили %v", err)
	}
}

func TestCommentListByArticle_Tree(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(true)
	a := seedArticle(t, articles)
	ctx := context.Background()

	root1, _ := svc.Create(ctx, 1, models.CreateCommentRequest{ArticleID: a.ID, Content: "Первый корень"}, "", "")
	root2, _ := svc.Create(ctx, 2, models.CreateCommentRequest{ArticleID: a.ID, Content: "Второй корень"}, "", "")
	reply, _ := svc.Create(ctx, 2, models.CreateCommentRequest{ArticleID: a.ID, ParentCommentID: &root1.ID, Content: "Ответ"}, "", "")

	// Ответ на ответ хранится, но в дерево не попадает.
	if _, err := svc.Create(ctx, 1, models.CreateCommentRequest{ArticleID: a.ID, ParentCommentID: &reply.ID, Content: "Глубже"}, "", ""); err != nil {
		t.Fatalf("вложенный ответ: %v", err)
	}

	roots, err := svc.ListByArticle(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("ListByArticle: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("ожидали 2 корневых комментария, получили %d", len(roots))
	}
	if roots[0].ID != root1.ID || roots[1].ID != root2.ID {
		t.Fatal("нарушен порядок корневых комментариев")
	}
	if len(roots[0].Replies) != 1 || roots[0].RepliesCount != 1 {
		t.Fatalf("у первого корня ожидали один одобренный ответ, получили %d", len(roots[0].Replies))
	}
	if len(roots[1].Replies) != 0 {
		t.Fatal("у второго корня не должно быть ответов")
	}
}

func TestCommentListByArticle_HidesPending(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(false)
	a := seedArticle(t, articles)
	ctx := context.Background()

	_, _ = svc.Create(ctx, 1, models.CreateCommentRequest{ArticleID: a.ID, Content: "Ждёт"}, "", "")
	approvedSrc, _ := svc.Create(ctx, 2, models.CreateCommentRequest{ArticleID: a.ID, Content: "Одобрят"}, "", "")
	_, _ = svc.Approve(ctx, approvedSrc.ID, 3)

	visible, err := svc.ListByArticle(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("ListByArticle: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != approvedSrc.ID {
		t.Fatalf("публично виден только одобренный комментарий, получили %d", len(visible))
	}

	all, err := svc.ListByArticle(ctx, a.ID, false)
	if err != nil {
		t.Fatalf("ListByArticle (модерация): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("модерация видит оба комментария, получили %d", len(all))
	}
}

func TestCommentGetAll_StatusFilter(t *testing.T) {
	svc, _, articles, _ := newCommentServiceForTest(false)
	a := seedArticle(t, articles)
	ctx := context.Background()

	_, _ = svc.Create(ctx, 1, models.CreateCommentRequest{ArticleID: a.ID, Content: "Первый"}, "", "")
	second, _ := svc.Create(ctx, 2, models.CreateCommentRequest{ArticleID: a.ID, Content: "Второй"}, "", "")
	_, _ = svc.Approve(ctx, second.ID, 3)

	status := models.CommentPending
	list, total, err := svc.GetAll(ctx, 1, 20, &status)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Status() != models.CommentPending {
		t.Fatalf("в очереди модерации ожидали один pending, получили %d (total=%d)", len(list), total)
	}
}
