// Package news - сайт новостей с комментариями.
package news

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"newsnotes/internal/auth"
	"newsnotes/internal/events"
	"newsnotes/internal/forms"
	"newsnotes/internal/logger"
	"newsnotes/internal/metrics"
	"newsnotes/internal/models"
	"newsnotes/internal/render"
	"newsnotes/internal/storage"
	"newsnotes/internal/users"
)

// Store - данные, нужные сайту новостей.
type Store interface {
	storage.NewsStore
	storage.CommentStore
}

type HomePage struct {
	NewsList []models.News
}

// DetailPage - новость с комментариями. Form есть только у вошедших.
type DetailPage struct {
	News     models.News
	Comments []models.Comment
	Form     *forms.CommentForm
}

type CommentPage struct {
	Comment models.Comment
	Form    *forms.CommentForm
}

type Handler struct {
	store     Store
	render    render.Renderer
	publisher events.Publisher
	metrics   *metrics.Metrics
	newsCount int
}

func NewHandler(store Store, r render.Renderer, p events.Publisher, m *metrics.Metrics, newsCount int) *Handler {
	return &Handler{store: store, render: r, publisher: p, metrics: m, newsCount: newsCount}
}

func (h *Handler) Register(mux *http.ServeMux) {
	login := func(f http.HandlerFunc) http.Handler { return auth.RequireLogin(users.LoginURL, f) }

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /news/{id}/{$}", h.Detail)
	mux.Handle("POST /news/{id}/{$}", login(h.CreateComment))
	mux.Handle("GET /edit_comment/{id}/{$}", login(h.EditComment))
	mux.Handle("POST /edit_comment/{id}/{$}", login(h.UpdateComment))
	mux.Handle("GET /delete_comment/{id}/{$}", login(h.ConfirmDelete))
	mux.Handle("POST /delete_comment/{id}/{$}", login(h.DeleteComment))
	mux.Handle("DELETE /delete_comment/{id}/{$}", login(h.DeleteComment))
	mux.HandleFunc("POST /api/censor", h.Censor)
}

// CommentsURL - якорь блока комментариев новости.
func CommentsURL(newsID int64) string {
	return fmt.Sprintf("/news/%d/#comments", newsID)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListNews(r.Context(), h.newsCount)
	if err != nil {
		serverError(w, err, "Failed to list news")
		return
	}
	h.render.Render(w, r, http.StatusOK, "news/home.html", HomePage{NewsList: list})
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	var form *forms.CommentForm
	if auth.UserFrom(r.Context()) != nil {
		form = forms.NewCommentForm("")
	}
	h.renderDetail(w, r, form)
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, form *forms.CommentForm) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	item, err := h.store.GetNews(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, err, "Failed to get news")
		return
	}
	comments, err := h.store.ListComments(r.Context(), id)
	if err != nil {
		serverError(w, err, "Failed to list comments")
		return
	}
	h.render.Render(w, r, http.StatusOK, "news/detail.html", DetailPage{News: *item, Comments: comments, Form: form})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, ok := h.parseComment(w, r)
	if !ok {
		return
	}
	if !form.Validate() {
		h.metrics.CommentsRejected.Inc()
		h.renderDetail(w, r, form)
		return
	}

	comment := &models.Comment{NewsID: id, AuthorID: user.ID, Text: form.Text}
	err := h.store.CreateComment(r.Context(), comment)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, err, "Failed to create comment")
		return
	}

	h.metrics.CommentsCreated.Inc()
	events.Emit(r.Context(), h.publisher, events.Event{Type: events.CommentCreated, ID: comment.ID, ParentID: id, AuthorID: user.ID})
	http.Redirect(w, r, CommentsURL(id), http.StatusFound)
}

func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.ownComment(w, r)
	if !ok {
		return
	}
	h.render.Render(w, r, http.StatusOK, "news/edit.html", CommentPage{
		Comment: *comment,
		Form:    forms.NewCommentForm(comment.Text),
	})
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.ownComment(w, r)
	if !ok {
		return
	}
	form, ok := h.parseComment(w, r)
	if !ok {
		return
	}
	if !form.Validate() {
		h.metrics.CommentsRejected.Inc()
		h.render.Render(w, r, http.StatusOK, "news/edit.html", CommentPage{Comment: *comment, Form: form})
		return
	}

	user := auth.UserFrom(r.Context())
	updated, err := h.store.UpdateComment(r.Context(), comment.ID, user.ID, form.Text)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, err, "Failed to update comment")
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{Type: events.CommentUpdated, ID: updated.ID, ParentID: updated.NewsID, AuthorID: user.ID})
	http.Redirect(w, r, CommentsURL(updated.NewsID), http.StatusFound)
}

func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.ownComment(w, r)
	if !ok {
		return
	}
	h.render.Render(w, r, http.StatusOK, "news/delete.html", CommentPage{Comment: *comment})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	deleted, err := h.store.DeleteComment(r.Context(), id, user.ID)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, err, "Failed to delete comment")
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{Type: events.CommentDeleted, ID: deleted.ID, ParentID: deleted.NewsID, AuthorID: user.ID})
	http.Redirect(w, r, CommentsURL(deleted.NewsID), http.StatusFound)
}

// ownComment загружает комментарий из пути; чужой или несуществующий - 404.
func (h *Handler) ownComment(w http.ResponseWriter, r *http.Request) (*models.Comment, bool) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	comment, err := h.store.GetComment(r.Context(), id, auth.UserFrom(r.Context()).ID)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		serverError(w, err, "Failed to get comment")
		return nil, false
	}
	return comment, true
}

func (h *Handler) parseComment(w http.ResponseWriter, r *http.Request) (*forms.CommentForm, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, false
	}
	return forms.ParseCommentForm(r.PostForm), true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func serverError(w http.ResponseWriter, err error, msg string) {
	logger.Log.WithError(err).Error(msg)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
