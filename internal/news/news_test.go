package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"newsnotes/internal/auth"
	"newsnotes/internal/events"
	"newsnotes/internal/forms"
	"newsnotes/internal/metrics"
	"newsnotes/internal/models"
	"newsnotes/internal/render"
	"newsnotes/internal/storage"
	"newsnotes/internal/users"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const newsCountOnHomePage = 10

type env struct {
	store   *storage.MemoryStorage
	rec     *render.Recorder
	metrics *metrics.Metrics
	handler http.Handler

	news      *models.News
	comment   *models.Comment
	author    *http.Cookie
	notAuthor *http.Cookie
	authorID  int64
	readerID  int64
}

func newEnv(t *testing.T, publisher events.Publisher) *env {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	rec := &render.Recorder{}
	m := metrics.New()

	mux := http.NewServeMux()
	NewHandler(store, rec, publisher, m, newsCountOnHomePage).Register(mux)
	e := &env{
		store:   store,
		rec:     rec,
		metrics: m,
		handler: auth.NewManager(store, time.Hour).Middleware(mux),
	}

	e.authorID, e.author = e.login(t, "Автор")
	e.readerID, e.notAuthor = e.login(t, "Не автор")

	e.news = &models.News{Title: "Новость", Text: "Текст новости"}
	require.NoError(t, store.CreateNews(ctx, e.news))
	e.comment = &models.Comment{NewsID: e.news.ID, AuthorID: e.authorID, Text: "Текст комментария"}
	require.NoError(t, store.CreateComment(ctx, e.comment))
	return e
}

// login создаёт пользователя и сессию для него в обход формы входа.
func (e *env) login(t *testing.T, username string) (int64, *http.Cookie) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Username: username, PasswordHash: "-"}
	require.NoError(t, e.store.CreateUser(ctx, user))
	token := fmt.Sprintf("session-%d", user.ID)
	require.NoError(t, e.store.CreateSession(ctx, models.Session{Token: token, UserID: user.ID, Expires: time.Now().Add(time.Hour)}))
	return user.ID, &http.Cookie{Name: auth.CookieName, Value: token}
}

func (e *env) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *env) page(t *testing.T) render.Call {
	t.Helper()
	call, ok := e.rec.Last()
	require.True(t, ok, "nothing rendered")
	return call
}

func (e *env) commentsCount(t *testing.T) int {
	t.Helper()
	n, err := e.store.CountComments(context.Background())
	require.NoError(t, err)
	return n
}

func detailURL(id int64) string { return fmt.Sprintf("/news/%d/", id) }
func editURL(id int64) string   { return fmt.Sprintf("/edit_comment/%d/", id) }
func deleteURL(id int64) string { return fmt.Sprintf("/delete_comment/%d/", id) }

func TestPagesAvailability(t *testing.T) {
	e := newEnv(t, events.Nop{})

	for _, target := range []string{"/", detailURL(e.news.ID)} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, target, nil, nil).Code)
		})
	}

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, detailURL(9999), nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/news/abc/", nil, nil).Code)
}

func TestCommentPagesAvailability(t *testing.T) {
	e := newEnv(t, events.Nop{})

	tests := []struct {
		name   string
		cookie *http.Cookie
		status int
	}{
		{"author", e.author, http.StatusOK},
		{"not author", e.notAuthor, http.StatusNotFound},
	}
	for _, tt := range tests {
		for _, target := range []string{editURL(e.comment.ID), deleteURL(e.comment.ID)} {
			t.Run(tt.name+" "+target, func(t *testing.T) {
				assert.Equal(t, tt.status, e.do(t, http.MethodGet, target, nil, tt.cookie).Code)
			})
		}
	}
}

func TestRedirectForAnonymousClient(t *testing.T) {
	e := newEnv(t, events.Nop{})

	for _, target := range []string{editURL(e.comment.ID), deleteURL(e.comment.ID)} {
		t.Run(target, func(t *testing.T) {
			w := e.do(t, http.MethodGet, target, nil, nil)
			require.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, users.LoginURL+"?next="+target, w.Header().Get("Location"))
		})
	}
}

func TestNewsCountOnHomePage(t *testing.T) {
	e := newEnv(t, events.Nop{})
	today := time.Now()
	for i := 0; i <= newsCountOnHomePage; i++ {
		n := &models.News{Title: fmt.Sprintf("Новость %d", i), Text: "Просто текст.", Date: today.AddDate(0, 0, -i)}
		require.NoError(t, e.store.CreateNews(context.Background(), n))
	}

	e.do(t, http.MethodGet, "/", nil, nil)
	page, ok := e.page(t).Data.(HomePage)
	require.True(t, ok)
	require.Len(t, page.NewsList, newsCountOnHomePage)

	for i := 1; i < len(page.NewsList); i++ {
		assert.False(t, page.NewsList[i].Date.After(page.NewsList[i-1].Date), "news must be ordered by date desc")
	}
}

func TestHomeShowsCommentsCount(t *testing.T) {
	e := newEnv(t, events.Nop{})

	e.do(t, http.MethodGet, "/", nil, nil)
	page := e.page(t).Data.(HomePage)
	require.Len(t, page.NewsList, 1)
	assert.Equal(t, 1, page.NewsList[0].CommentsCount)
}

func TestCommentsOrder(t *testing.T) {
	e := newEnv(t, events.Nop{})
	now := time.Now()
	for i := 0; i < 10; i++ {
		c := &models.Comment{NewsID: e.news.ID, AuthorID: e.authorID, Text: fmt.Sprintf("Tекст %d", i), Created: now.Add(time.Duration(10-i) * 24 * time.Hour)}
		require.NoError(t, e.store.CreateComment(context.Background(), c))
	}

	e.do(t, http.MethodGet, detailURL(e.news.ID), nil, nil)
	page, ok := e.page(t).Data.(DetailPage)
	require.True(t, ok)
	assert.Equal(t, e.news.ID, page.News.ID)
	require.Len(t, page.Comments, 11)
	for i := 1; i < len(page.Comments); i++ {
		assert.False(t, page.Comments[i].Created.Before(page.Comments[i-1].Created), "comments must be ordered by created asc")
	}
}

func TestDetailFormOnlyForAuthorized(t *testing.T) {
	e := newEnv(t, events.Nop{})

	e.do(t, http.MethodGet, detailURL(e.news.ID), nil, nil)
	assert.Nil(t, e.page(t).Data.(DetailPage).Form)

	e.do(t, http.MethodGet, detailURL(e.news.ID), nil, e.author)
	assert.NotNil(t, e.page(t).Data.(DetailPage).Form)
}

func TestAnonymousUserCantCreateComment(t *testing.T) {
	e := newEnv(t, events.Nop{})

	w := e.do(t, http.MethodPost, detailURL(e.news.ID), url.Values{"text": {"Новый текст"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, users.LoginURL+"?next="+detailURL(e.news.ID), w.Header().Get("Location"))
	assert.Equal(t, 1, e.commentsCount(t))
}

func TestUserCanCreateComment(t *testing.T) {
	publisher := new(events.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(ev events.Event) bool {
		return ev.Type == events.CommentCreated
	})).Return(nil).Once()
	e := newEnv(t, publisher)

	w := e.do(t, http.MethodPost, detailURL(e.news.ID), url.Values{"text": {"Новый текст"}}, e.notAuthor)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailURL(e.news.ID)+"#comments", w.Header().Get("Location"))
	assert.Equal(t, 2, e.commentsCount(t))

	comments, err := e.store.ListComments(context.Background(), e.news.ID)
	require.NoError(t, err)
	last := comments[len(comments)-1]
	assert.Equal(t, "Новый текст", last.Text)
	assert.Equal(t, e.news.ID, last.NewsID)
	assert.Equal(t, e.readerID, last.AuthorID)

	assert.Equal(t, float64(1), testutil.ToFloat64(e.metrics.CommentsCreated))
	publisher.AssertExpectations(t)
}

func TestUserCantUseBadWords(t *testing.T) {
	for _, word := range forms.BadWords {
		t.Run(word, func(t *testing.T) {
			e := newEnv(t, events.Nop{})

			form := url.Values{"text": {"Какой-то текст, " + word + ", еще текст"}}
			w := e.do(t, http.MethodPost, detailURL(e.news.ID), form, e.notAuthor)
			require.Equal(t, http.StatusOK, w.Code)

			page, ok := e.page(t).Data.(DetailPage)
			require.True(t, ok)
			assert.Equal(t, []string{forms.Warning}, page.Form.Errors.Get("text"))
			assert.Equal(t, 1, e.commentsCount(t))
			assert.Equal(t, float64(1), testutil.ToFloat64(e.metrics.CommentsRejected))
		})
	}
}

func TestCommentOnMissingNews(t *testing.T) {
	e := newEnv(t, events.Nop{})

	w := e.do(t, http.MethodPost, detailURL(9999), url.Values{"text": {"Текст"}}, e.author)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, e.commentsCount(t))
}

func TestAuthorCanDeleteComment(t *testing.T) {
	for _, method := range []string{http.MethodDelete, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			e := newEnv(t, events.Nop{})

			w := e.do(t, method, deleteURL(e.comment.ID), nil, e.author)
			require.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, detailURL(e.news.ID)+"#comments", w.Header().Get("Location"))
			assert.Equal(t, 0, e.commentsCount(t))
		})
	}
}

func TestUserCantDeleteCommentOfAnotherUser(t *testing.T) {
	e := newEnv(t, events.Nop{})

	w := e.do(t, http.MethodDelete, deleteURL(e.comment.ID), nil, e.notAuthor)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, e.commentsCount(t))
}

func TestAuthorCanEditComment(t *testing.T) {
	e := newEnv(t, events.Nop{})

	w := e.do(t, http.MethodPost, editURL(e.comment.ID), url.Values{"text": {"Новый текст"}}, e.author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailURL(e.news.ID)+"#comments", w.Header().Get("Location"))

	got, err := e.store.GetComment(context.Background(), e.comment.ID, e.authorID)
	require.NoError(t, err)
	assert.Equal(t, "Новый текст", got.Text)
	assert.Equal(t, e.news.ID, got.NewsID)
	assert.Equal(t, e.authorID, got.AuthorID)
}

func TestEditFormPrefilled(t *testing.T) {
	e := newEnv(t, events.Nop{})

	e.do(t, http.MethodGet, editURL(e.comment.ID), nil, e.author)
	page, ok := e.page(t).Data.(CommentPage)
	require.True(t, ok)
	assert.Equal(t, "Текст комментария", page.Form.Text)
}

func TestEditRejectsBadWords(t *testing.T) {
	e := newEnv(t, events.Nop{})

	w := e.do(t, http.MethodPost, editURL(e.comment.ID), url.Values{"text": {"Ты негодяй"}}, e.author)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := e.store.GetComment(context.Background(), e.comment.ID, e.authorID)
	require.NoError(t, err)
	assert.Equal(t, "Текст комментария", got.Text)
}

func TestUserCantEditCommentOfAnotherUser(t *testing.T) {
	e := newEnv(t, events.Nop{})

	w := e.do(t, http.MethodPost, editURL(e.comment.ID), url.Values{"text": {"Новый текст"}}, e.notAuthor)
	assert.Equal(t, http.StatusNotFound, w.Code)

	got, err := e.store.GetComment(context.Background(), e.comment.ID, e.authorID)
	require.NoError(t, err)
	assert.Equal(t, e.comment.Text, got.Text)
	assert.Equal(t, e.comment.NewsID, got.NewsID)
}

func TestTemplatesRenderPages(t *testing.T) {
	store := storage.NewMemoryStorage()
	tmpl, err := render.NewTemplates("YaNews")
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(store, tmpl, events.Nop{}, metrics.New(), newsCountOnHomePage).Register(mux)
	e := &env{store: store, handler: auth.NewManager(store, time.Hour).Middleware(mux)}
	e.authorID, e.author = e.login(t, "Автор")

	n := &models.News{Title: "Новость", Text: "Текст новости"}
	require.NoError(t, store.CreateNews(context.Background(), n))
	c := &models.Comment{NewsID: n.ID, AuthorID: e.authorID, Text: "Текст комментария"}
	require.NoError(t, store.CreateComment(context.Background(), c))

	for _, target := range []string{"/", detailURL(n.ID), editURL(c.ID), deleteURL(c.ID)} {
		w := e.do(t, http.MethodGet, target, nil, e.author)
		require.Equal(t, http.StatusOK, w.Code, target)
		assert.Contains(t, w.Body.String(), "Текст", target)
	}
}
