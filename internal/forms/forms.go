// Package forms разбирает и проверяет данные HTML-форм обоих сайтов.
package forms

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// NonField - ключ ошибок, не относящихся к конкретному полю.
const NonField = "__all__"

const (
	msgRequired = "Обязательное поле."
	msgTooLong  = "Убедитесь, что это значение содержит не более %d символов."
)

// Errors хранит сообщения об ошибках по полям формы.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get возвращает ошибки поля.
func (e Errors) Get(field string) []string {
	return e[field]
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

func value(values url.Values, field string) string {
	return strings.TrimSpace(values.Get(field))
}

func checkRequired(errs Errors, field, v string) bool {
	if v == "" {
		errs.Add(field, msgRequired)
		return false
	}
	return true
}

func checkMaxLength(errs Errors, field, v string, max int) bool {
	if utf8.RuneCountInString(v) > max {
		errs.Add(field, fmt.Sprintf(msgTooLong, max))
		return false
	}
	return true
}
