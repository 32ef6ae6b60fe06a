package forms

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"newsnotes/internal/models"
	"newsnotes/internal/slugify"
)

// SlugWarning дописывается к занятому slug в тексте ошибки.
const SlugWarning = " - такой slug уже существует, придумайте уникальное значение!"

const (
	msgBadSlug   = "Значение должно состоять только из латинских букв, цифр, знаков подчеркивания или дефиса."
	msgEmptySlug = "Не удалось составить slug из заголовка, укажите его вручную."
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// SlugChecker проверяет занятость slug другими заметками.
type SlugChecker interface {
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
}

type NoteForm struct {
	Title  string
	Text   string
	Slug   string
	Errors Errors
}

func NewNoteForm() *NoteForm {
	return &NoteForm{Errors: Errors{}}
}

// NoteFormFrom заполняет форму данными существующей заметки.
func NoteFormFrom(n models.Note) *NoteForm {
	return &NoteForm{Title: n.Title, Text: n.Text, Slug: n.Slug, Errors: Errors{}}
}

func ParseNoteForm(values url.Values) *NoteForm {
	return &NoteForm{
		Title:  value(values, "title"),
		Text:   value(values, "text"),
		Slug:   value(values, "slug"),
		Errors: Errors{},
	}
}

// Validate проверяет поля формы. Пустой slug выводится из заголовка;
// занятый другой заметкой (кроме excludeID) slug - ошибка поля slug.
// Ошибка возвращается только при сбое checker.
func (f *NoteForm) Validate(ctx context.Context, checker SlugChecker, excludeID int64) (bool, error) {
	titleOK := checkRequired(f.Errors, "title", f.Title) &&
		checkMaxLength(f.Errors, "title", f.Title, models.NoteTitleMaxLength)
	checkRequired(f.Errors, "text", f.Text)

	if f.Slug == "" {
		if !titleOK {
			return false, nil
		}
		f.Slug = slugify.Truncate(slugify.Make(f.Title), models.NoteSlugMaxLength)
		if f.Slug == "" {
			f.Errors.Add("slug", msgEmptySlug)
			return false, nil
		}
	} else {
		if !checkMaxLength(f.Errors, "slug", f.Slug, models.NoteSlugMaxLength) {
			return false, nil
		}
		if !slugPattern.MatchString(f.Slug) {
			f.Errors.Add("slug", msgBadSlug)
			return false, nil
		}
	}

	taken, err := checker.SlugTaken(ctx, f.Slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		f.Errors.Add("slug", f.Slug+SlugWarning)
	}
	return f.Errors.Valid(), nil
}

// Apply переносит проверенные значения в заметку.
func (f *NoteForm) Apply(n *models.Note) {
	n.Title = f.Title
	n.Text = f.Text
	n.Slug = f.Slug
}
