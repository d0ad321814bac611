package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

type CacheAdapter struct {
	reportsCache *reportsCache
	logger       out.LoggerPort
}

func NewCacheAdapter(cfg *config.Config, logger out.LoggerPort) (*CacheAdapter, error) {
	if cfg.Cache.ReportsSize <= 0 {
		return nil, fmt.Errorf("cache reports size must be positive, got %d", cfg.Cache.ReportsSize)
	}

	lruReportsCache, err := lru.New[string, reportsCacheEntry](cfg.Cache.ReportsSize)
	if err != nil {
		logger.Error("cache.reports.init.failed", out.LogFields{
			"error": err.Error(),
			"size":  cfg.Cache.ReportsSize,
		})
		return nil, err
	}

	return &CacheAdapter{
		reportsCache: &reportsCache{cache: lruReportsCache},
		logger:       logger,
	}, nil
}
