package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsnotes/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresStorage - хранилище в PostgreSQL
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage создаёт экземпляр PostgreSQL-хранилища
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStorage) ListNews(ctx context.Context, limit int) ([]models.News, error) {
	q := psql.Select("n.id", "n.title", "n.text", "n.date", "COALESCE(n.source_link, '')", "COUNT(c.id)").
		From("news n").
		LeftJoin("comments c ON c.news_id = n.id").
		GroupBy("n.id").
		OrderBy("n.date DESC", "n.id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	var news []models.News
	for rows.Next() {
		var n models.News
		if err := rows.Scan(&n.ID, &n.Title, &n.Text, &n.Date, &n.SourceLink, &n.CommentsCount); err != nil {
			return nil, fmt.Errorf("failed to scan news: %w", err)
		}
		news = append(news, n)
	}
	return news, rows.Err()
}

func (s *PostgresStorage) GetNews(ctx context.Context, id int64) (*models.News, error) {
	var n models.News
	err := s.pool.QueryRow(ctx, `
		SELECT n.id, n.title, n.text, n.date, COALESCE(n.source_link, ''),
			(SELECT COUNT(*) FROM comments c WHERE c.news_id = n.id)
		FROM news n
		WHERE n.id = $1
	`, id).Scan(&n.ID, &n.Title, &n.Text, &n.Date, &n.SourceLink, &n.CommentsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get news %d: %w", id, err)
	}
	return &n, nil
}

func (s *PostgresStorage) CreateNews(ctx context.Context, news *models.News) error {
	query, args, err := newsInsert(news).Suffix("RETURNING id, date").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&news.ID, &news.Date); err != nil {
		return fmt.Errorf("failed to create news: %w", err)
	}
	return nil
}

// ImportNews вставляет новость, пропуская уже известные source_link.
func (s *PostgresStorage) ImportNews(ctx context.Context, news *models.News) (bool, error) {
	query, args, err := newsInsert(news).
		Suffix("ON CONFLICT (source_link) DO NOTHING RETURNING id, date").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}
	err = s.pool.QueryRow(ctx, query, args...).Scan(&news.ID, &news.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to import news %q: %w", news.SourceLink, err)
	}
	return true, nil
}

func newsInsert(news *models.News) squirrel.InsertBuilder {
	var date any = squirrel.Expr("CURRENT_DATE")
	if !news.Date.IsZero() {
		date = news.Date
	}
	var link any
	if news.SourceLink != "" {
		link = news.SourceLink
	}
	return psql.Insert("news").
		Columns("title", "text", "date", "source_link").
		Values(news.Title, news.Text, date, link)
}

func (s *PostgresStorage) ListComments(ctx context.Context, newsID int64) ([]models.Comment, error) {
	query, args, err := commentSelect().
		Where(squirrel.Eq{"c.news_id": newsID}).
		OrderBy("c.created", "c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.NewsID, &c.AuthorID, &c.AuthorName, &c.Text, &c.Created); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *PostgresStorage) GetComment(ctx context.Context, id, authorID int64) (*models.Comment, error) {
	query, args, err := commentSelect().
		Where(squirrel.Eq{"c.id": id, "c.author_id": authorID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var c models.Comment
	err = s.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.NewsID, &c.AuthorID, &c.AuthorName, &c.Text, &c.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment %d: %w", id, err)
	}
	return &c, nil
}

func commentSelect() squirrel.SelectBuilder {
	return psql.Select("c.id", "c.news_id", "c.author_id", "u.username", "c.text", "c.created").
		From("comments c").
		Join("users u ON u.id = c.author_id")
}

func (s *PostgresStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	var created any = squirrel.Expr("CURRENT_TIMESTAMP")
	if !comment.Created.IsZero() {
		created = comment.Created
	}
	query, args, err := psql.Insert("comments").
		Columns("news_id", "author_id", "text", "created").
		Values(comment.NewsID, comment.AuthorID, comment.Text, created).
		Suffix("RETURNING id, created").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	err = s.pool.QueryRow(ctx, query, args...).Scan(&comment.ID, &comment.Created)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateComment(ctx context.Context, id, authorID int64, text string) (*models.Comment, error) {
	c := models.Comment{ID: id, AuthorID: authorID, Text: text}
	err := s.pool.QueryRow(ctx, `
		UPDATE comments SET text = $1
		WHERE id = $2 AND author_id = $3
		RETURNING news_id, created
	`, text, id, authorID).Scan(&c.NewsID, &c.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update comment %d: %w", id, err)
	}
	return &c, nil
}

func (s *PostgresStorage) DeleteComment(ctx context.Context, id, authorID int64) (*models.Comment, error) {
	c := models.Comment{ID: id, AuthorID: authorID}
	err := s.pool.QueryRow(ctx, `
		DELETE FROM comments
		WHERE id = $1 AND author_id = $2
		RETURNING news_id, text, created
	`, id, authorID).Scan(&c.NewsID, &c.Text, &c.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return &c, nil
}

func (s *PostgresStorage) CountComments(ctx context.Context) (int, error) {
	return s.count(ctx, "comments")
}

func (s *PostgresStorage) ListNotes(ctx context.Context, authorID int64) ([]models.Note, error) {
	query, args, err := psql.Select("id", "title", "text", "slug", "author_id").
		From("notes").
		Where(squirrel.Eq{"author_id": authorID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *PostgresStorage) GetNote(ctx context.Context, slug string, authorID int64) (*models.Note, error) {
	var n models.Note
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, text, slug, author_id FROM notes WHERE slug = $1 AND author_id = $2
	`, slug, authorID).Scan(&n.ID, &n.Title, &n.Text, &n.Slug, &n.AuthorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note %q for user %d: %w", slug, authorID, err)
	}
	return &n, nil
}

func (s *PostgresStorage) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM notes WHERE slug = $1 AND id <> $2)`, slug, excludeID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug %q: %w", slug, err)
	}
	return exists, nil
}

func (s *PostgresStorage) CreateNote(ctx context.Context, note *models.Note) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notes (title, text, slug, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, note.Title, note.Text, note.Slug, note.AuthorID).Scan(&note.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateNote(ctx context.Context, note *models.Note) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notes SET title = $1, text = $2, slug = $3
		WHERE id = $4 AND author_id = $5
	`, note.Title, note.Text, note.Slug, note.ID, note.AuthorID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to update note %d: %w", note.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteNote(ctx context.Context, id, authorID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete note %d for user %d: %w", id, authorID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) CountNotes(ctx context.Context) (int, error) {
	return s.count(ctx, "notes")
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created
	`, user.Username, user.PasswordHash).Scan(&user.ID, &user.Created)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, squirrel.Eq{"id": id})
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, squirrel.Eq{"username": username})
}

func (s *PostgresStorage) getUser(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	query, args, err := psql.Select("id", "username", "password_hash", "created").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var u models.User
	err = s.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStorage) CreateSession(ctx context.Context, session models.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, expires) VALUES ($1, $2, $3)
	`, session.Token, session.UserID, session.Expires)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetSession(ctx context.Context, token string) (*models.Session, error) {
	session := models.Session{Token: token}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, expires FROM sessions WHERE token = $1 AND expires > $2
	`, token, time.Now()).Scan(&session.UserID, &session.Expires)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *PostgresStorage) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *PostgresStorage) count(ctx context.Context, table string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
