package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

type reportsCacheEntry struct {
	Report domain.DeletionReport
}

type reportsCache struct {
	mu    sync.RWMutex
	cache *lru.Cache[string, reportsCacheEntry]
}

// Отчеты об удалении

func (c *CacheAdapter) StoreReport(ctx context.Context, report domain.DeletionReport) {
	c.reportsCache.mu.Lock()
	defer c.reportsCache.mu.Unlock()

	// Копии, чтобы вызывающий не поменял сохраненные списки
	if report.Failed != nil {
		failed := make([]domain.FailedRecord, len(report.Failed))
		copy(failed, report.Failed)
		report.Failed = failed
	}
	if report.Skipped != nil {
		skipped := make([]domain.SkippedRecord, len(report.Skipped))
		copy(skipped, report.Skipped)
		report.Skipped = skipped
	}

	c.reportsCache.cache.Add(report.Key(), reportsCacheEntry{Report: report})

	c.logger.Debug("cache.reports.store", out.LogFields{
		"key":      report.Key(),
		"reportId": report.ID,
		"deleted":  report.Deleted,
	})
}

func (c *CacheAdapter) GetReport(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, bool) {
	c.reportsCache.mu.RLock()
	defer c.reportsCache.mu.RUnlock()

	key := domain.ResourceKey(resource, id)
	entry, exists := c.reportsCache.cache.Get(key)
	if !exists {
		c.logger.Debug("cache.reports.get.miss", out.LogFields{
			"key": key,
		})
		return domain.DeletionReport{}, false
	}

	return entry.Report, true
}

func (c *CacheAdapter) InvalidateReports(ctx context.Context) {
	c.reportsCache.mu.Lock()
	defer c.reportsCache.mu.Unlock()

	c.reportsCache.cache.Purge()
}
