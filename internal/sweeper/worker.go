package sweeper

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/lessonlane/studio-manager/internal/cache"
	"golang.org/x/sync/errgroup"
)

func (w *Worker) worker(ctx context.Context) {
	ticker := time.NewTicker(w.c.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sweepAll(ctx); err != nil {
				slog.Default().ErrorContext(ctx, "waitlist sweep failed",
					slog.String("err", err.Error()),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}

// sweepAll runs one sweep over every active tenant, a bounded number of
// tenants at a time. A failing tenant does not block the others.
func (w *Worker) sweepAll(ctx context.Context) error {
	tenantIds := cache.ActiveTenantIds()
	if len(tenantIds) == 0 {
		tenants, err := w.repo.Tenants().ListActiveTenants(ctx)
		if err != nil {
			return fmt.Errorf("can't list active tenants: %w", err)
		}
		cache.InitTenants(tenants)
		for _, t := range tenants {
			tenantIds = append(tenantIds, t.Id)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.c.Concurrency)
	for _, tenantId := range tenantIds {
		tenantId := tenantId
		g.Go(func() error {
			w.sweepTenant(gctx, tenantId)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) sweepTenant(ctx context.Context, tenantId int) {
	expired, err := w.repo.Waitlist().ExpireOverdueOffers(ctx, tenantId, w.c.BatchLimit)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't expire overdue offers",
			slog.String("err", err.Error()),
			slog.Int("tenant_id", tenantId),
		)
	} else if len(expired) > 0 {
		slog.Default().InfoContext(ctx, "expired overdue offers",
			slog.Int("tenant_id", tenantId),
			slog.Int("count", len(expired)),
		)
	}

	stale, err := w.repo.Waitlist().ExpireStaleWaiting(ctx, tenantId, w.c.BatchLimit)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't expire stale waiting entries",
			slog.String("err", err.Error()),
			slog.Int("tenant_id", tenantId),
		)
	} else if len(stale) > 0 {
		slog.Default().InfoContext(ctx, "expired stale waiting entries",
			slog.Int("tenant_id", tenantId),
			slog.Int("count", len(stale)),
		)
	}
}
