package models

import "time"

type Tag struct {
	ID          int64     `db:"id"            json:"id"`
	Name        string    `db:"name"          json:"name"`
	Slug        string    `db:"slug"          json:"slug"`
	Description *string   `db:"description"   json:"description,omitempty"`
	Color       string    `db:"color"         json:"color"`
	Icon        *string   `db:"icon"          json:"icon,omitempty"`
	IsActive    bool      `db:"is_active"     json:"isActive"`
	SortOrder   int       `db:"sort_order"    json:"sortOrder"`
	CreatedByID *int      `db:"created_by_id" json:"createdById,omitempty"`
	CreatedAt   time.Time `db:"created_at"    json:"createdAt"`

	UsageCount int `db:"-" json:"usageCount"`
}

const DefaultTagColor = "#6c757d"

func (t *Tag) Activate()   { t.IsActive = true }
func (t *Tag) Deactivate() { t.IsActive = false }

// GenerateSlug строит slug из имени тега тем же способом, что и у статей.
func (t *Tag) GenerateSlug() string {
	return Slugify(t.Name)
}

// ArticleTag — связка «статья—тег» с метаданными о том, кто и когда её создал.
// Собственного жизненного цикла нет: удаляется вместе с любым из родителей.
type ArticleTag struct {
	ArticleID   int64     `db:"article_id"    json:"articleId"`
	TagID       int64     `db:"tag_id"        json:"tagId"`
	CreatedByID *int      `db:"created_by_id" json:"createdById,omitempty"`
	Position    int       `db:"position"      json:"position"`
	CreatedAt   time.Time `db:"created_at"    json:"createdAt"`
}

// swagger:model CreateTagRequest
type CreateTagRequest struct {
	Name        string `json:"name" example:"космос"`
	Description string `json:"description,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Color       string `json:"color,omitempty" example:"#6c757d"`
	Icon        string `json:"icon,omitempty"`
	SortOrder   int    `json:"sortOrder"`
}

// swagger:model UpdateTagRequest
type UpdateTagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	SortOrder   int    `json:"sortOrder"`
}
