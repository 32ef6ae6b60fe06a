// Package users - страницы входа, выхода и регистрации, общие для обоих сайтов.
package users

import (
	"errors"
	"net/http"

	"newsnotes/internal/auth"
	"newsnotes/internal/forms"
	"newsnotes/internal/logger"
	"newsnotes/internal/models"
	"newsnotes/internal/render"
)

const (
	LoginURL  = "/auth/login/"
	LogoutURL = "/auth/logout/"
	SignupURL = "/auth/signup/"
)

type LoginPage struct {
	Form *forms.LoginForm
}

type SignupPage struct {
	Form *forms.SignupForm
}

// Handler обслуживает страницы /auth/.
type Handler struct {
	auth   *auth.Manager
	render render.Renderer
	home   string
}

// NewHandler создаёт обработчик; home - адрес после входа без next.
func NewHandler(m *auth.Manager, r render.Renderer, home string) *Handler {
	return &Handler{auth: m, render: r, home: home}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+LoginURL+"{$}", h.LoginForm)
	mux.HandleFunc("POST "+LoginURL+"{$}", h.Login)
	mux.HandleFunc("GET "+LogoutURL+"{$}", h.Logout)
	mux.HandleFunc("POST "+LogoutURL+"{$}", h.Logout)
	mux.HandleFunc("GET "+SignupURL+"{$}", h.SignupForm)
	mux.HandleFunc("POST "+SignupURL+"{$}", h.Signup)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	form := forms.ParseLoginForm(nil)
	form.Next = r.URL.Query().Get("next")
	h.render.Render(w, r, http.StatusOK, "registration/login.html", LoginPage{Form: form})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.ParseLoginForm(r.PostForm)
	if form.Next == "" {
		form.Next = r.URL.Query().Get("next")
	}
	if !form.Validate() {
		h.render.Render(w, r, http.StatusOK, "registration/login.html", LoginPage{Form: form})
		return
	}

	user, err := h.auth.Authenticate(r.Context(), form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		form.Errors.Add(forms.NonField, forms.MsgInvalidLogin)
		h.render.Render(w, r, http.StatusOK, "registration/login.html", LoginPage{Form: form})
		return
	}
	if err != nil {
		serverError(w, err, "Failed to authenticate user")
		return
	}
	if err := h.auth.Login(w, r, user); err != nil {
		serverError(w, err, "Failed to create session")
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	target, ok := auth.SafeNext(form.Next)
	if !ok {
		target = h.home
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout принимает и GET, и POST: страница выхода открывается ссылкой.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(w, r); err != nil {
		serverError(w, err, "Failed to delete session")
		return
	}
	// шаблон уже не должен видеть пользователя
	r = r.WithContext(auth.WithUser(r.Context(), nil))
	h.render.Render(w, r, http.StatusOK, "registration/logout.html", nil)
}

func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "registration/signup.html", SignupPage{Form: forms.ParseSignupForm(nil)})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.ParseSignupForm(r.PostForm)
	if !form.Validate() {
		h.render.Render(w, r, http.StatusOK, "registration/signup.html", SignupPage{Form: form})
		return
	}

	user, err := h.auth.Register(r.Context(), form.Username, form.Password1)
	if errors.Is(err, models.ErrConflict) {
		form.Errors.Add("username", forms.MsgUsernameTaken)
		h.render.Render(w, r, http.StatusOK, "registration/signup.html", SignupPage{Form: form})
		return
	}
	if err != nil {
		serverError(w, err, "Failed to register user")
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	http.Redirect(w, r, LoginURL, http.StatusFound)
}

func serverError(w http.ResponseWriter, err error, msg string) {
	logger.Log.WithError(err).Error(msg)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
