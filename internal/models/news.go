package models

import "time"

// Ограничения длины полей, общие для форм и схемы БД.
const (
	NewsTitleMaxLength = 50
	NoteTitleMaxLength = 100
	NoteSlugMaxLength  = 100
	UsernameMaxLength  = 150
)

// News представляет новость на главной странице.
// SourceLink заполняется только для новостей, импортированных из RSS.
type News struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	Date          time.Time `json:"date"`
	SourceLink    string    `json:"source_link,omitempty"`
	CommentsCount int       `json:"comments_count"`
}

// Comment - комментарий пользователя к новости.
type Comment struct {
	ID         int64     `json:"id"`
	NewsID     int64     `json:"news_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author"`
	Text       string    `json:"text"`
	Created    time.Time `json:"created"`
}

// IsAuthor сообщает, принадлежит ли комментарий пользователю.
func (c Comment) IsAuthor(u *User) bool {
	return u != nil && c.AuthorID == u.ID
}
