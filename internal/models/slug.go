package models

import "strings"

// Таблица транслитерации кириллицы в латиницу. Ъ и Ь отбрасываются.
var slugReplacer = strings.NewReplacer(
	" ", "-",
	"а", "a",
	"б", "b",
	"в", "v",
	"г", "g",
	"д", "d",
	"е", "e",
	"ё", "e",
	"ж", "zh",
	"з", "z",
	"и", "i",
	"й", "y",
	"к", "k",
	"л", "l",
	"м", "m",
	"н", "n",
	"о", "o",
	"п", "p",
	"р", "r",
	"с", "s",
	"т", "t",
	"у", "u",
	"ф", "f",
	"х", "h",
	"ц", "c",
	"ч", "ch",
	"ш", "sh",
	"щ", "sch",
	"ъ", "",
	"ы", "y",
	"ь", "",
	"э", "e",
	"ю", "yu",
	"я", "ya",
)

// Slugify детерминированно строит URL-идентификатор из заголовка:
// нижний регистр, пробелы в дефисы, кириллица транслитерируется.
// Уникальность здесь не проверяется — это забота вызывающего слоя.
func Slugify(title string) string {
	if title == "" {
		return ""
	}
	return slugReplacer.Replace(strings.ToLower(title))
}
