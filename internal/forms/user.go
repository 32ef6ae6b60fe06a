package forms

import (
	"net/url"
	"regexp"
	"unicode/utf8"

	"newsnotes/internal/models"
)

const (
	MsgInvalidLogin    = "Пожалуйста, введите правильные имя пользователя и пароль. Оба поля могут быть чувствительны к регистру."
	MsgUsernameTaken   = "Пользователь с таким именем уже существует."
	msgBadUsername     = "Введите правильное имя пользователя. Оно может содержать только буквы, цифры и знаки @/./+/-/_."
	msgPasswordShort   = "Введённый пароль слишком короткий. Он должен содержать как минимум 8 символов."
	msgPasswordsDiffer = "Введенные пароли не совпадают."

	minPasswordLength = 8
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

type LoginForm struct {
	Username string
	Password string
	Next     string
	Errors   Errors
}

func ParseLoginForm(values url.Values) *LoginForm {
	return &LoginForm{
		Username: value(values, "username"),
		// пароль не обрезается
		Password: values.Get("password"),
		Next:     values.Get("next"),
		Errors:   Errors{},
	}
}

func (f *LoginForm) Validate() bool {
	checkRequired(f.Errors, "username", f.Username)
	checkRequired(f.Errors, "password", f.Password)
	return f.Errors.Valid()
}

type SignupForm struct {
	Username  string
	Password1 string
	Password2 string
	Errors    Errors
}

func ParseSignupForm(values url.Values) *SignupForm {
	return &SignupForm{
		Username:  value(values, "username"),
		Password1: values.Get("password1"),
		Password2: values.Get("password2"),
		Errors:    Errors{},
	}
}

// Validate проверяет имя пользователя и совпадение паролей.
// Уникальность имени проверяет хранилище при создании пользователя.
func (f *SignupForm) Validate() bool {
	if checkRequired(f.Errors, "username", f.Username) &&
		checkMaxLength(f.Errors, "username", f.Username, models.UsernameMaxLength) &&
		!usernamePattern.MatchString(f.Username) {
		f.Errors.Add("username", msgBadUsername)
	}
	checkRequired(f.Errors, "password1", f.Password1)
	if checkRequired(f.Errors, "password2", f.Password2) && f.Password1 != f.Password2 {
		f.Errors.Add("password2", msgPasswordsDiffer)
	}
	if f.Password1 != "" && utf8.RuneCountInString(f.Password1) < minPasswordLength {
		f.Errors.Add("password2", msgPasswordShort)
	}
	return f.Errors.Valid()
}
