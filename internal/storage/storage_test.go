package storage

import (
	"context"
	"testing"
	"time"

	"newsnotes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStorage прогоняет общие для всех реализаций проверки.
func testStorage(t *testing.T, s Storage) {
	ctx := context.Background()

	author := &models.User{Username: "Автор", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, author))
	reader := &models.User{Username: "Не автор", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, reader))

	t.Run("duplicate username", func(t *testing.T) {
		err := s.CreateUser(ctx, &models.User{Username: "Автор", PasswordHash: "y"})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("get user", func(t *testing.T) {
		u, err := s.GetUserByUsername(ctx, "Автор")
		require.NoError(t, err)
		assert.Equal(t, author.ID, u.ID)

		_, err = s.GetUser(ctx, -1)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	var newsIDs []int64
	for i := 0; i < 12; i++ {
		n := &models.News{Title: "Новость", Text: "Просто текст.", Date: today.AddDate(0, 0, -i)}
		require.NoError(t, s.CreateNews(ctx, n))
		newsIDs = append(newsIDs, n.ID)
	}

	t.Run("news ordered by date desc and limited", func(t *testing.T) {
		news, err := s.ListNews(ctx, 10)
		require.NoError(t, err)
		require.Len(t, news, 10)
		for i := 1; i < len(news); i++ {
			assert.False(t, news[i].Date.After(news[i-1].Date))
		}
		assert.Equal(t, newsIDs[0], news[0].ID)
	})

	t.Run("import is idempotent by source link", func(t *testing.T) {
		n := &models.News{Title: "RSS", Text: "t", SourceLink: "http://example.com/1"}
		inserted, err := s.ImportNews(ctx, n)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = s.ImportNews(ctx, &models.News{Title: "RSS", Text: "t", SourceLink: "http://example.com/1"})
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	newsID := newsIDs[0]
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	var commentIDs []int64
	for i := 3; i >= 0; i-- {
		c := &models.Comment{NewsID: newsID, AuthorID: author.ID, Text: "Текст", Created: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.CreateComment(ctx, c))
		commentIDs = append(commentIDs, c.ID)
	}

	t.Run("comments ordered by created asc", func(t *testing.T) {
		comments, err := s.ListComments(ctx, newsID)
		require.NoError(t, err)
		require.Len(t, comments, 4)
		for i := 1; i < len(comments); i++ {
			assert.True(t, comments[i].Created.After(comments[i-1].Created))
		}
		assert.Equal(t, "Автор", comments[0].AuthorName)

		n, err := s.GetNews(ctx, newsID)
		require.NoError(t, err)
		assert.Equal(t, 4, n.CommentsCount)
	})

	t.Run("comment on missing news", func(t *testing.T) {
		err := s.CreateComment(ctx, &models.Comment{NewsID: -1, AuthorID: author.ID, Text: "x"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("comment ownership", func(t *testing.T) {
		id := commentIDs[0]

		_, err := s.GetComment(ctx, id, reader.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = s.UpdateComment(ctx, id, reader.ID, "Чужой текст")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = s.DeleteComment(ctx, id, reader.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		updated, err := s.UpdateComment(ctx, id, author.ID, "Новый текст")
		require.NoError(t, err)
		assert.Equal(t, newsID, updated.NewsID)

		got, err := s.GetComment(ctx, id, author.ID)
		require.NoError(t, err)
		assert.Equal(t, "Новый текст", got.Text)

		deleted, err := s.DeleteComment(ctx, id, author.ID)
		require.NoError(t, err)
		assert.Equal(t, newsID, deleted.NewsID)

		count, err := s.CountComments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("notes scoped to author", func(t *testing.T) {
		note := &models.Note{Title: "Заголовок", Text: "Текст", Slug: "note-slug", AuthorID: author.ID}
		require.NoError(t, s.CreateNote(ctx, note))

		err := s.CreateNote(ctx, &models.Note{Title: "Другая", Text: "Текст", Slug: "note-slug", AuthorID: reader.ID})
		assert.ErrorIs(t, err, models.ErrConflict)

		taken, err := s.SlugTaken(ctx, "note-slug", 0)
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = s.SlugTaken(ctx, "note-slug", note.ID)
		require.NoError(t, err)
		assert.False(t, taken)

		list, err := s.ListNotes(ctx, reader.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
		list, err = s.ListNotes(ctx, author.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = s.GetNote(ctx, "note-slug", reader.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		foreign := *note
		foreign.AuthorID = reader.ID
		foreign.Title = "Взлом"
		assert.ErrorIs(t, s.UpdateNote(ctx, &foreign), models.ErrNotFound)
		assert.ErrorIs(t, s.DeleteNote(ctx, note.ID, reader.ID), models.ErrNotFound)

		note.Title = "Новый заголовок"
		note.Slug = "new-slug"
		require.NoError(t, s.UpdateNote(ctx, note))
		got, err := s.GetNote(ctx, "new-slug", author.ID)
		require.NoError(t, err)
		assert.Equal(t, "Новый заголовок", got.Title)

		require.NoError(t, s.DeleteNote(ctx, note.ID, author.ID))
		count, err := s.CountNotes(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("sessions", func(t *testing.T) {
		live := models.Session{Token: "live-token", UserID: author.ID, Expires: time.Now().Add(time.Hour)}
		require.NoError(t, s.CreateSession(ctx, live))
		got, err := s.GetSession(ctx, "live-token")
		require.NoError(t, err)
		assert.Equal(t, author.ID, got.UserID)

		expired := models.Session{Token: "old-token", UserID: author.ID, Expires: time.Now().Add(-time.Hour)}
		require.NoError(t, s.CreateSession(ctx, expired))
		_, err = s.GetSession(ctx, "old-token")
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, s.DeleteSession(ctx, "live-token"))
		_, err = s.GetSession(ctx, "live-token")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	require.NoError(t, s.Ping(ctx))
}
