package models

import "time"

type Article struct {
	ID              int64      `db:"id"               json:"id"`
	AuthorID        int        `db:"author_id"        json:"authorId"`
	Title           string     `db:"title"            json:"title"`
	Content         string     `db:"content"          json:"content"`
	Summary         *string    `db:"summary"          json:"summary,omitempty"`
	Slug            string     `db:"slug"             json:"slug"`
	ImageURL        *string    `db:"image_url"        json:"imageUrl,omitempty"`
	MetaDescription *string    `db:"meta_description" json:"metaDescription,omitempty"`
	Keywords        *string    `db:"keywords"         json:"keywords,omitempty"`
	IsPublished     bool       `db:"is_published"     json:"isPublished"`
	PublishedAt     *time.Time `db:"published_at"     json:"publishedAt,omitempty"`
	ViewCount       int64      `db:"view_count"       json:"viewCount"`
	CreatedAt       time.Time  `db:"created_at"       json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at"       json:"updatedAt"`

	Tags          []*Tag `db:"-" json:"tags,omitempty"`
	CommentsCount int    `db:"-" json:"commentsCount"`
}

// Publish переводит статью в опубликованное состояние.
// Повторный вызов допустим — метки времени проставляются заново.
func (a *Article) Publish() {
	now := time.Now()
	a.IsPublished = true
	a.PublishedAt = &now
	a.UpdatedAt = now
}

// Unpublish возвращает статью в черновик: published_at обнуляется.
func (a *Article) Unpublish() {
	a.IsPublished = false
	a.PublishedAt = nil
	a.UpdatedAt = time.Now()
}

// GenerateSlug строит slug из текущего заголовка. Идемпотентна.
func (a *Article) GenerateSlug() string {
	return Slugify(a.Title)
}

// swagger:model CreateArticleRequest
type CreateArticleRequest struct {
	Title           string  `json:"title"   example:"Привет Мир"`
	Content         string  `json:"content" example:"<p>Текст статьи</p>"`
	Summary         string  `json:"summary" example:"Короткое описание для превью"`
	Slug            string  `json:"slug,omitempty"`
	ImageURL        string  `json:"imageUrl,omitempty"`
	MetaDescription string  `json:"metaDescription,omitempty"`
	Keywords        string  `json:"keywords,omitempty"`
	Publish         bool    `json:"publish"`
	TagIDs          []int64 `json:"tagIds,omitempty"`
}

// swagger:model UpdateArticleRequest
type UpdateArticleRequest struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Summary         string   `json:"summary"`
	Slug            string   `json:"slug,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	Keywords        string   `json:"keywords,omitempty"`
	Publish         bool     `json:"publish"`
	TagIDs          *[]int64 `json:"tagIds,omitempty"` // nil — связи с тегами не трогаем
}
