package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsnotes/internal/models"
)

// MemoryStorage - хранилище в памяти
type MemoryStorage struct {
	mu       sync.RWMutex
	news     map[int64]models.News
	comments map[int64]models.Comment
	notes    map[int64]models.Note
	users    map[int64]models.User
	sessions map[string]models.Session
	lastID   int64

	now func() time.Time
}

// NewMemoryStorage создает новое in-memory хранилище
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		news:     make(map[int64]models.News),
		comments: make(map[int64]models.Comment),
		notes:    make(map[int64]models.Note),
		users:    make(map[int64]models.User),
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

// SetClock подменяет источник времени (для тестов).
func (s *MemoryStorage) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStorage) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ListNews возвращает новости по убыванию даты.
func (s *MemoryStorage) ListNews(_ context.Context, limit int) ([]models.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, c := range s.comments {
		counts[c.NewsID]++
	}

	result := make([]models.News, 0, len(s.news))
	for _, n := range s.news {
		n.CommentsCount = counts[n.ID]
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStorage) GetNews(_ context.Context, id int64) (*models.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.news[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	for _, c := range s.comments {
		if c.NewsID == id {
			n.CommentsCount++
		}
	}
	return &n, nil
}

func (s *MemoryStorage) CreateNews(_ context.Context, news *models.News) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertNews(news)
	return nil
}

func (s *MemoryStorage) ImportNews(_ context.Context, news *models.News) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if news.SourceLink != "" {
		for _, n := range s.news {
			if n.SourceLink == news.SourceLink {
				return false, nil
			}
		}
	}
	s.insertNews(news)
	return true, nil
}

func (s *MemoryStorage) insertNews(news *models.News) {
	news.ID = s.nextID()
	if news.Date.IsZero() {
		news.Date = s.now()
	}
	news.Date = truncateDate(news.Date)
	news.CommentsCount = 0
	s.news[news.ID] = *news
}

// ListComments возвращает комментарии к новости от старых к новым.
func (s *MemoryStorage) ListComments(_ context.Context, newsID int64) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Comment
	for _, c := range s.comments {
		if c.NewsID == newsID {
			c.AuthorName = s.users[c.AuthorID].Username
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Created.Equal(result[j].Created) {
			return result[i].Created.Before(result[j].Created)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *MemoryStorage) GetComment(_ context.Context, id, authorID int64) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok || c.AuthorID != authorID {
		return nil, models.ErrNotFound
	}
	c.AuthorName = s.users[c.AuthorID].Username
	return &c, nil
}

func (s *MemoryStorage) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.news[comment.NewsID]; !ok {
		return models.ErrNotFound
	}
	comment.ID = s.nextID()
	if comment.Created.IsZero() {
		comment.Created = s.now()
	}
	comment.AuthorName = s.users[comment.AuthorID].Username
	s.comments[comment.ID] = *comment
	return nil
}

func (s *MemoryStorage) UpdateComment(_ context.Context, id, authorID int64, text string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.AuthorID != authorID {
		return nil, models.ErrNotFound
	}
	c.Text = text
	s.comments[id] = c
	return &c, nil
}

func (s *MemoryStorage) DeleteComment(_ context.Context, id, authorID int64) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.AuthorID != authorID {
		return nil, models.ErrNotFound
	}
	delete(s.comments, id)
	return &c, nil
}

func (s *MemoryStorage) CountComments(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.comments), nil
}

// ListNotes возвращает заметки автора в порядке создания.
func (s *MemoryStorage) ListNotes(_ context.Context, authorID int64) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Note
	for _, n := range s.notes {
		if n.AuthorID == authorID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStorage) GetNote(_ context.Context, slug string, authorID int64) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notes {
		if n.Slug == slug && n.AuthorID == authorID {
			return &n, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *MemoryStorage) SlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slugTaken(slug, excludeID), nil
}

func (s *MemoryStorage) slugTaken(slug string, excludeID int64) bool {
	for _, n := range s.notes {
		if n.Slug == slug && n.ID != excludeID {
			return true
		}
	}
	return false
}

func (s *MemoryStorage) CreateNote(_ context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(note.Slug, 0) {
		return models.ErrConflict
	}
	note.ID = s.nextID()
	s.notes[note.ID] = *note
	return nil
}

func (s *MemoryStorage) UpdateNote(_ context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.notes[note.ID]
	if !ok || stored.AuthorID != note.AuthorID {
		return models.ErrNotFound
	}
	if s.slugTaken(note.Slug, note.ID) {
		return models.ErrConflict
	}
	s.notes[note.ID] = *note
	return nil
}

func (s *MemoryStorage) DeleteNote(_ context.Context, id, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.AuthorID != authorID {
		return models.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *MemoryStorage) CountNotes(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes), nil
}

func (s *MemoryStorage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return models.ErrConflict
		}
	}
	user.ID = s.nextID()
	if user.Created.IsZero() {
		user.Created = s.now()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStorage) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *MemoryStorage) CreateSession(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Token] = session
	return nil
}

// GetSession возвращает действующую сессию; просроченная удаляется.
func (s *MemoryStorage) GetSession(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	if session.Expired(s.now()) {
		delete(s.sessions, token)
		return nil, models.ErrNotFound
	}
	return &session, nil
}

func (s *MemoryStorage) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// truncateDate отбрасывает время суток: дата новости хранится без времени.
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
