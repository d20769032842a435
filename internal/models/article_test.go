package models

import "testing"

func TestArticlePublishUnpublish(t *testing.T) {
	a := &Article{Title: "Тест"}

	a.Publish()
	if !a.IsPublished || a.PublishedAt == nil {
		t.Fatal("после Publish ожидали is_published=true и заполненный published_at")
	}

	first := *a.PublishedAt
	a.Publish()
	if a.PublishedAt == nil || a.PublishedAt.Before(first) {
		t.Fatal("повторный Publish должен переставить метку времени заново")
	}

	a.Unpublish()
	if a.IsPublished || a.PublishedAt != nil {
		t.Fatal("после Unpublish статья — черновик без published_at")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Привет Мир", "privet-mir"},
		{"Hello World", "hello-world"},
		{"Жёлтый щит", "zheltyy-schit"},
		{"Объявление", "obyavlenie"},
		{"уже-готовый-slug", "uzhe-gotovyy-slug"},
	}

	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, ожидали %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	once := Slugify("Космос и Звёзды")
	twice := Slugify(once)
	if once != twice {
		t.Fatalf("повторный Slugify изменил результат: %q -> %q", once, twice)
	}
}

func TestArticleGenerateSlug(t *testing.T) {
	a := &Article{Title: "Новая Статья"}
	if got := a.GenerateSlug(); got != "novaya-statya" {
		t.Fatalf("GenerateSlug = %q, ожидали %q", got, "novaya-statya")
	}
}
