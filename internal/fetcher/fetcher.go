package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"newsnotes/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Fetcher загружает RSS/Atom-ленты и превращает записи в новости.
type Fetcher struct {
	parser *gofeed.Parser
	now    func() time.Time
}

func New(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	return &Fetcher{parser: parser, now: time.Now}
}

// FetchFeed загружает ленту по url. Записи без заголовка пропускаются.
func (f *Fetcher) FetchFeed(ctx context.Context, url string) ([]models.News, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", url, err)
	}

	news := make([]models.News, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := truncate(strings.TrimSpace(item.Title), models.NewsTitleMaxLength)
		if title == "" {
			continue
		}
		body := item.Description
		if body == "" {
			body = item.Content
		}
		news = append(news, models.News{
			Title:      title,
			Text:       plainText(body),
			Date:       f.itemDate(item),
			SourceLink: item.Link,
		})
	}
	return news, nil
}

func (f *Fetcher) itemDate(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	default:
		return f.now()
	}
}

// plainText убирает HTML-разметку из описания записи.
func plainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
