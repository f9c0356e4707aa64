package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"airdash/internal/metrics"
	"airdash/internal/models"
)

// Sink is the destination for freshly loaded observations.
type Sink interface {
	Replace(rows []models.Observation) error
}

// Refresher reloads the source file on a fixed interval so edits to the
// dataset show up without a restart.
type Refresher struct {
	loader   *Loader
	sink     Sink
	interval time.Duration
}

func NewRefresher(loader *Loader, sink Sink, interval time.Duration) *Refresher {
	return &Refresher{
		loader:   loader,
		sink:     sink,
		interval: interval,
	}
}

func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresher stopping")
			return
		case <-ticker.C:
			if _, err := r.ReloadOnce(); err != nil {
				log.Printf("Dataset refresh failed: %v", err)
			}
		}
	}
}

// ReloadOnce loads the source file and swaps the dataset in one step.
// It returns the number of observations loaded.
func (r *Refresher) ReloadOnce() (int, error) {
	rows, err := r.loader.Load()
	if err != nil {
		metrics.DatasetReloads.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("loading dataset: %w", err)
	}
	if err := r.sink.Replace(rows); err != nil {
		metrics.DatasetReloads.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("replacing dataset: %w", err)
	}
	metrics.DatasetReloads.WithLabelValues("success").Inc()
	metrics.DatasetRows.Set(float64(len(rows)))
	log.Printf("Dataset reloaded: %d observations", len(rows))
	return len(rows), nil
}
