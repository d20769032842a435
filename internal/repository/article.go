package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"spaceblog/internal/models"
)

// ArticleFilter — условия выборки списка статей.
type ArticleFilter struct {
	OnlyPublished bool
	TagID         *int64
	AuthorID      *int
}

type ArticleRepo interface {
	Create(ctx context.Context, a *models.Article) (*models.Article, error)
	GetAll(ctx context.Context, limit, offset int, filter ArticleFilter) ([]*models.Article, int, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	Update(ctx context.Context, a *models.Article) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	IsSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	UpdatePublish(ctx context.Context, id int64, publish bool) error
	IncrementViewCount(ctx context.Context, id int64) (int64, error)
}

type articleRepo struct{ db *pgxpool.Pool }

func NewArticleRepo(db *pgxpool.Pool) ArticleRepo { return &articleRepo{db: db} }

const articleColumns = `id, author_id, title, content, summary, slug, image_url, meta_description, keywords,
	is_published, published_at, view_count, created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }, a *models.Article) error {
	return row.Scan(
		&a.ID, &a.AuthorID, &a.Title, &a.Content, &a.Summary, &a.Slug,
		&a.ImageURL, &a.MetaDescription, &a.Keywords,
		&a.IsPublished, &a.PublishedAt, &a.ViewCount, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *articleRepo) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	const q = `
		INSERT INTO articles (author_id, title, content, summary, slug, image_url, meta_description, keywords, is_published, published_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, CASE WHEN $9 THEN NOW() ELSE NULL END)
		RETURNING ` + articleColumns

	var out models.Article
	if err := scanArticle(r.db.QueryRow(ctx, q,
		a.AuthorID,
		a.Title,
		a.Content,
		a.Summary,
		a.Slug,
		a.ImageURL,
		a.MetaDescription,
		a.Keywords,
		a.IsPublished,
	), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *articleRepo) GetAll(ctx context.Context, limit, offset int, filter ArticleFilter) ([]*models.Article, int, error) {
	where := []string{}
	args := []interface{}{}
	i := 1

	if filter.OnlyPublished {
		where = append(where, fmt.Sprintf("a.is_published = $%d", i))
		args = append(args, true)
		i++
	}
	if filter.TagID != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM article_tags at WHERE at.article_id = a.id AND at.tag_id = $%d)", i))
		args = append(args, *filter.TagID)
		i++
	}
	if filter.AuthorID != nil {
		where = append(where, fmt.Sprintf("a.author_id = $%d", i))
		args = append(args, *filter.AuthorID)
		i++
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM articles a"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := "SELECT " + prefixColumns("a") + " FROM articles a" + cond +
		fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*models.Article
	for rows.Next() {
		var a models.Article
		if err := scanArticle(rows, &a); err != nil {
			return nil, 0, err
		}
		list = append(list, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(articleColumns, ",")
	for idx, c := range cols {
		cols[idx] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	q := "SELECT " + articleColumns + " FROM articles WHERE id=$1"
	var a models.Article
	if err := scanArticle(r.db.QueryRow(ctx, q, id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	q := "SELECT " + articleColumns + " FROM articles WHERE slug=$1"
	var a models.Article
	if err := scanArticle(r.db.QueryRow(ctx, q, slug), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articleRepo) Update(ctx context.Context, a *models.Article) error {
	const q = `
		UPDATE articles
		SET title=$1,
		    content=$2,
		    summary=$3,
		    slug=$4,
		    image_url=$5,
		    meta_description=$6,
		    keywords=$7,
		    is_published=$8,
		    published_at=$9,
		    updated_at=NOW()
		WHERE id=$10
	`
	_, err := r.db.Exec(ctx, q,
		a.Title, a.Content, a.Summary, a.Slug,
		a.ImageURL, a.MetaDescription, a.Keywords,
		a.IsPublished, a.PublishedAt, a.ID,
	)
	return err
}

func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM articles WHERE id=$1", id)
	return err
}

func (r *articleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`
	var ok bool
	if err := r.db.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *articleRepo) IsSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, q, slug, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// UpdatePublish переключает статус публикации. Повторная публикация
// переставляет published_at заново — это осознанное поведение «обновления».
func (r *articleRepo) UpdatePublish(ctx context.Context, id int64, publish bool) error {
	const q = `
		UPDATE articles
		SET is_published = $2,
		    published_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, q, id, publish)
	return err
}

// IncrementViewCount — атомарный инкремент одним UPDATE, без
// read-modify-write: параллельные просмотры не теряются.
func (r *articleRepo) IncrementViewCount(ctx context.Context, id int64) (int64, error) {
	const q = `UPDATE articles SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`
	var count int64
	if err := r.db.QueryRow(ctx, q, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
