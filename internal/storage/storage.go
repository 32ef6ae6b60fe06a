package storage

import (
	"context"

	"newsnotes/internal/models"
)

// NewsStore - новости главной страницы.
type NewsStore interface {
	// ListNews возвращает не более limit новостей, свежие первыми.
	// limit <= 0 - без ограничения.
	ListNews(ctx context.Context, limit int) ([]models.News, error)
	GetNews(ctx context.Context, id int64) (*models.News, error)
	CreateNews(ctx context.Context, news *models.News) error
	// ImportNews сохраняет новость из RSS, если её SourceLink ещё не встречался.
	ImportNews(ctx context.Context, news *models.News) (bool, error)
}

// CommentStore - комментарии к новостям. Изменение и удаление
// ограничены автором: чужой комментарий неотличим от отсутствующего.
type CommentStore interface {
	ListComments(ctx context.Context, newsID int64) ([]models.Comment, error)
	GetComment(ctx context.Context, id, authorID int64) (*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	UpdateComment(ctx context.Context, id, authorID int64, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, authorID int64) (*models.Comment, error)
	CountComments(ctx context.Context) (int, error)
}

// NoteStore - заметки, видимые только автору.
type NoteStore interface {
	ListNotes(ctx context.Context, authorID int64) ([]models.Note, error)
	GetNote(ctx context.Context, slug string, authorID int64) (*models.Note, error)
	// SlugTaken проверяет занятость slug любой заметкой, кроме excludeID.
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	CreateNote(ctx context.Context, note *models.Note) error
	UpdateNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id, authorID int64) error
	CountNotes(ctx context.Context) (int, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Storage - интерфейс для всех типов хранилищ (in-memory и PostgreSQL)
type Storage interface {
	NewsStore
	CommentStore
	NoteStore
	UserStore
	SessionStore
	Ping(ctx context.Context) error
}
