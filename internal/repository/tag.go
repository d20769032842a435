package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"spaceblog/internal/models"
)

type TagRepo interface {
	Create(ctx context.Context, t *models.Tag) (*models.Tag, error)
	GetAll(ctx context.Context, onlyActive bool) ([]*models.Tag, error)
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	Update(ctx context.Context, t *models.Tag) error
	Delete(ctx context.Context, id int64) error
	IsNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	UsageCount(ctx context.Context, tagID int64) (int, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type tagRepo struct{ db *pgxpool.Pool }

func NewTagRepo(db *pgxpool.Pool) TagRepo { return &tagRepo{db: db} }

const tagColumns = `t.id, t.name, t.slug, t.description, t.color, t.icon, t.is_active, t.sort_order, t.created_by_id, t.created_at`

func (r *tagRepo) Create(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	const q = `
		INSERT INTO tags (name, slug, description, color, icon, is_active, sort_order, created_by_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`
	if err := r.db.QueryRow(ctx, q,
		t.Name, t.Slug, t.Description, t.Color, t.Icon, t.IsActive, t.SortOrder, t.CreatedByID,
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// GetAll возвращает теги со счётчиком использований; по умолчанию
// деактивированные теги в списки не попадают.
func (r *tagRepo) GetAll(ctx context.Context, onlyActive bool) ([]*models.Tag, error) {
	q := `SELECT ` + tagColumns + `, COALESCE(at.cnt, 0)
		FROM tags t
		LEFT JOIN (SELECT tag_id, COUNT(*) cnt FROM article_tags GROUP BY tag_id) at ON at.tag_id = t.id`
	if onlyActive {
		q += " WHERE t.is_active"
	}
	q += " ORDER BY t.sort_order, t.name"

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.Icon,
			&t.IsActive, &t.SortOrder, &t.CreatedByID, &t.CreatedAt, &t.UsageCount,
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

func (r *tagRepo) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	q := `SELECT ` + tagColumns + `, COALESCE(at.cnt, 0)
		FROM tags t
		LEFT JOIN (SELECT tag_id, COUNT(*) cnt FROM article_tags GROUP BY tag_id) at ON at.tag_id = t.id
		WHERE t.id = $1`
	var t models.Tag
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.Icon,
		&t.IsActive, &t.SortOrder, &t.CreatedByID, &t.CreatedAt, &t.UsageCount,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepo) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	q := `SELECT ` + tagColumns + `, COALESCE(at.cnt, 0)
		FROM tags t
		LEFT JOIN (SELECT tag_id, COUNT(*) cnt FROM article_tags GROUP BY tag_id) at ON at.tag_id = t.id
		WHERE t.slug = $1`
	var t models.Tag
	if err := r.db.QueryRow(ctx, q, slug).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.Icon,
		&t.IsActive, &t.SortOrder, &t.CreatedByID, &t.CreatedAt, &t.UsageCount,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepo) Update(ctx context.Context, t *models.Tag) error {
	const q = `
		UPDATE tags
		SET name=$1, slug=$2, description=$3, color=$4, icon=$5, sort_order=$6
		WHERE id=$7
	`
	_, err := r.db.Exec(ctx, q, t.Name, t.Slug, t.Description, t.Color, t.Icon, t.SortOrder, t.ID)
	return err
}

func (r *tagRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM tags WHERE id=$1", id)
	return err
}

// IsNameTaken — имена тегов уникальны без учёта регистра.
func (r *tagRepo) IsNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM tags WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, q, name, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (r *tagRepo) UsageCount(ctx context.Context, tagID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM article_tags WHERE tag_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, q, tagID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *tagRepo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.Exec(ctx, "UPDATE tags SET is_active=$2 WHERE id=$1", id, active)
	return err
}
