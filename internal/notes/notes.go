// Package notes - сайт личных заметок.
package notes

import (
	"errors"
	"net/http"

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

// SuccessURL - страница после создания, правки или удаления заметки.
const SuccessURL = "/done/"

type ListPage struct {
	Notes []models.Note
}

// FormPage - форма заметки; Note заполнена при редактировании.
type FormPage struct {
	Form *forms.NoteForm
	Note *models.Note
}

type NotePage struct {
	Note models.Note
}

type Handler struct {
	store     storage.NoteStore
	render    render.Renderer
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func NewHandler(store storage.NoteStore, r render.Renderer, p events.Publisher, m *metrics.Metrics) *Handler {
	return &Handler{store: store, render: r, publisher: p, metrics: m}
}

func (h *Handler) Register(mux *http.ServeMux) {
	login := func(f http.HandlerFunc) http.Handler { return auth.RequireLogin(users.LoginURL, f) }

	mux.HandleFunc("GET /{$}", h.Home)
	mux.Handle("GET /notes/{$}", login(h.List))
	mux.Handle("GET /add/{$}", login(h.AddForm))
	mux.Handle("POST /add/{$}", login(h.Add))
	mux.Handle("GET "+SuccessURL+"{$}", login(h.Success))
	mux.Handle("GET /note/{slug}/{$}", login(h.Detail))
	mux.Handle("GET /edit/{slug}/{$}", login(h.EditForm))
	mux.Handle("POST /edit/{slug}/{$}", login(h.Edit))
	mux.Handle("GET /delete/{slug}/{$}", login(h.ConfirmDelete))
	mux.Handle("POST /delete/{slug}/{$}", login(h.Delete))
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "notes/home.html", nil)
}

// List показывает только заметки текущего пользователя.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListNotes(r.Context(), auth.UserFrom(r.Context()).ID)
	if err != nil {
		serverError(w, err, "Failed to list notes")
		return
	}
	h.render.Render(w, r, http.StatusOK, "notes/list.html", ListPage{Notes: list})
}

func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "notes/form.html", FormPage{Form: forms.NewNoteForm()})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	form, ok := h.validate(w, r, 0)
	if !ok {
		return
	}
	if !form.Errors.Valid() {
		h.render.Render(w, r, http.StatusOK, "notes/form.html", FormPage{Form: form})
		return
	}

	note := &models.Note{AuthorID: user.ID}
	form.Apply(note)
	err := h.store.CreateNote(r.Context(), note)
	if errors.Is(err, models.ErrConflict) {
		// slug заняли между проверкой и вставкой
		form.Errors.Add("slug", form.Slug+forms.SlugWarning)
		h.render.Render(w, r, http.StatusOK, "notes/form.html", FormPage{Form: form})
		return
	}
	if err != nil {
		serverError(w, err, "Failed to create note")
		return
	}

	h.metrics.NotesCreated.Inc()
	events.Emit(r.Context(), h.publisher, events.Event{Type: events.NoteCreated, ID: note.ID, AuthorID: user.ID})
	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

func (h *Handler) Success(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "notes/success.html", nil)
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}
	h.render.Render(w, r, http.StatusOK, "notes/detail.html", NotePage{Note: *note})
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}
	h.render.Render(w, r, http.StatusOK, "notes/form.html", FormPage{Form: forms.NoteFormFrom(*note), Note: note})
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}
	form, ok := h.validate(w, r, note.ID)
	if !ok {
		return
	}
	if !form.Errors.Valid() {
		h.render.Render(w, r, http.StatusOK, "notes/form.html", FormPage{Form: form, Note: note})
		return
	}

	updated := *note
	form.Apply(&updated)
	err := h.store.UpdateNote(r.Context(), &updated)
	if errors.Is(err, models.ErrConflict) {
		form.Errors.Add("slug", form.Slug+forms.SlugWarning)
		h.render.Render(w, r, http.StatusOK, "notes/form.html", FormPage{Form: form, Note: note})
		return
	}
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, err, "Failed to update note")
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{Type: events.NoteUpdated, ID: note.ID, AuthorID: note.AuthorID})
	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}
	h.render.Render(w, r, http.StatusOK, "notes/delete.html", NotePage{Note: *note})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}
	err := h.store.DeleteNote(r.Context(), note.ID, note.AuthorID)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, err, "Failed to delete note")
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{Type: events.NoteDeleted, ID: note.ID, AuthorID: note.AuthorID})
	http.Redirect(w, r, SuccessURL, http.StatusFound)
}

// ownNote ищет заметку по slug среди заметок текущего пользователя.
func (h *Handler) ownNote(w http.ResponseWriter, r *http.Request) (*models.Note, bool) {
	note, err := h.store.GetNote(r.Context(), r.PathValue("slug"), auth.UserFrom(r.Context()).ID)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		serverError(w, err, "Failed to get note")
		return nil, false
	}
	return note, true
}

// validate разбирает и проверяет форму; false - ответ уже отправлен.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request, excludeID int64) (*forms.NoteForm, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, false
	}
	form := forms.ParseNoteForm(r.PostForm)
	if _, err := form.Validate(r.Context(), h.store, excludeID); err != nil {
		serverError(w, err, "Failed to validate note")
		return nil, false
	}
	return form, true
}

func serverError(w http.ResponseWriter, err error, msg string) {
	logger.Log.WithError(err).Error(msg)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
