package forms

import (
	"net/url"
	"strings"
)

// BadWords - запрещённые в комментариях слова.
var BadWords = []string{"редиска", "негодяй"}

// Warning - ошибка поля text при найденном запрещённом слове.
const Warning = "Не ругайтесь!"

type CommentForm struct {
	Text   string
	Errors Errors
}

func NewCommentForm(text string) *CommentForm {
	return &CommentForm{Text: text, Errors: Errors{}}
}

func ParseCommentForm(values url.Values) *CommentForm {
	return NewCommentForm(value(values, "text"))
}

// Validate проверяет обязательность текста и отсутствие запрещённых слов.
func (f *CommentForm) Validate() bool {
	if !checkRequired(f.Errors, "text", f.Text) {
		return false
	}
	if ContainsBadWord(f.Text) {
		f.Errors.Add("text", Warning)
	}
	return f.Errors.Valid()
}

// ContainsBadWord ищет запрещённые слова как подстроки без учёта регистра.
func ContainsBadWord(text string) bool {
	lowered := strings.ToLower(text)
	for _, word := range BadWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
