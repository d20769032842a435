package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"spaceblog/internal/models"
)

type ArticleTagRepo interface {
	ReplaceForArticle(ctx context.Context, articleID int64, tagIDs []int64, createdByID int) error
	ListTagsByArticle(ctx context.Context, articleID int64) ([]*models.Tag, error)
}

type articleTagRepo struct{ db *pgxpool.Pool }

func NewArticleTagRepo(db *pgxpool.Pool) ArticleTagRepo { return &articleTagRepo{db: db} }

// ReplaceForArticle заменяет связи статьи с тегами целиком, в одной
// транзакции: позиция — порядок в переданном списке.
func (r *articleTagRepo) ReplaceForArticle(ctx context.Context, articleID int64, tagIDs []int64, createdByID int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM article_tags WHERE article_id = $1`, articleID); err != nil {
		return err
	}

	const q = `INSERT INTO article_tags (article_id, tag_id, created_by_id, position) VALUES ($1,$2,$3,$4)`
	for pos, tagID := range tagIDs {
		if _, err := tx.Exec(ctx, q, articleID, tagID, createdByID, pos); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *articleTagRepo) ListTagsByArticle(ctx context.Context, articleID int64) ([]*models.Tag, error) {
	const q = `
		SELECT t.id, t.name, t.slug, t.description, t.color, t.icon, t.is_active, t.sort_order, t.created_by_id, t.created_at
		FROM article_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id = $1
		ORDER BY at.position
	`
	rows, err := r.db.Query(ctx, q, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.Icon,
			&t.IsActive, &t.SortOrder, &t.CreatedByID, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
