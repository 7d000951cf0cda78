package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/lessonlane/studio-manager/internal/dependency"
)

// Config holds configuration for the waitlist sweeper.
type Config struct {
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	// BatchLimit bounds how many entries one sweep may expire per tenant.
	BatchLimit int `mapstructure:"batch_limit"`
	// Concurrency bounds how many tenants are swept in parallel.
	Concurrency int `mapstructure:"concurrency"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		WorkerInterval: 15 * time.Minute,
		BatchLimit:     200,
		Concurrency:    4,
	}
}

// Worker expires open offers past their deadline and waiting entries older
// than the tenant's configured age limit, tenant by tenant.
type Worker struct {
	repo dependency.Repository
	c    *Config
	ctx  context.Context
	stop context.CancelFunc
}

// New creates a new sweeper worker.
func New(c *Config, repo dependency.Repository) *Worker {
	if c == nil {
		dc := DefaultConfig()
		c = &dc
	}
	if c.WorkerInterval == 0 {
		c.WorkerInterval = 15 * time.Minute
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = 200
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	return &Worker{
		repo: repo,
		c:    c,
	}
}

// Start starts the worker.
func (w *Worker) Start(ctx context.Context) error {
	if w.ctx != nil && w.stop != nil {
		return fmt.Errorf("sweeper already started")
	}
	w.ctx, w.stop = context.WithCancel(ctx)
	go w.worker(w.ctx)
	return nil
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() error {
	if w.stop == nil {
		return fmt.Errorf("sweeper already stopped or not started")
	}
	w.stop()
	w.stop = nil
	return nil
}
