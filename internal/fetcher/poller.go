package fetcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"newsnotes/internal/logger"
	"newsnotes/internal/models"
)

// Importer сохраняет новость, если её источник ещё не встречался.
type Importer interface {
	ImportNews(ctx context.Context, news *models.News) (bool, error)
}

// Poller периодически импортирует новости из лент.
type Poller struct {
	fetcher  *Fetcher
	store    Importer
	feeds    []string
	interval time.Duration
}

func NewPoller(f *Fetcher, store Importer, feeds []string, interval time.Duration) *Poller {
	return &Poller{fetcher: f, store: store, feeds: feeds, interval: interval}
}

// Run опрашивает ленты сразу и затем раз в interval, пока не отменён ctx.
func (p *Poller) Run(ctx context.Context) {
	log := logger.Log.WithFields(logger.Fields{
		"service":  "poller",
		"interval": p.interval.String(),
	})

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		log.Info("Starting new polling cycle")
		log.WithField("imported", p.Poll(ctx)).Info("Polling cycle finished")

		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Info("Stopping poller by context")
			return
		}
	}
}

// Poll обрабатывает все ленты параллельно и возвращает число новых новостей.
func (p *Poller) Poll(ctx context.Context) int {
	var (
		wg       sync.WaitGroup
		imported atomic.Int64
	)
	for _, url := range p.feeds {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			imported.Add(int64(p.processFeed(ctx, url)))
		}(url)
	}
	wg.Wait()
	return int(imported.Load())
}

func (p *Poller) processFeed(ctx context.Context, url string) int {
	log := logger.Log.WithField("url", url)

	log.Debug("Fetching RSS feed")
	items, err := p.fetcher.FetchFeed(ctx, url)
	if err != nil {
		log.Errorf("Failed to fetch RSS: %v", err)
		return 0
	}

	log = log.WithField("items_count", len(items))
	log.Info("Processing RSS feed")

	imported := 0
	for i := range items {
		inserted, err := p.store.ImportNews(ctx, &items[i])
		if err != nil {
			log.Warnf("Failed to save news item: %v", err)
			continue
		}
		if inserted {
			imported++
		}
	}
	return imported
}
