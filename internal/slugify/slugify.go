// Package slugify строит slug из заголовка заметки, транслитерируя кириллицу
// по той же таблице, что и pytils.
package slugify

import (
	"strings"

	"github.com/gosimple/slug"
)

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "yi", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	// украинские буквы
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g",
	'&': " and ",
}

// Make возвращает slug для title: "Новый заголовок" -> "novyij-zagolovok".
func Make(title string) string {
	return slug.Make(slug.SubstituteRune(strings.ToLower(title), translit))
}

// Truncate обрезает slug до max байт, не оставляя дефис в конце.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimRight(s[:max], "-")
}
