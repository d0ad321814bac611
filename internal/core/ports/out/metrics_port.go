package out

import (
	"time"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
)

type MetricsPort interface {
	ObserveDeletion(resource domain.ResourceType, outcome string, duration time.Duration)
	ObserveDependentDelete(resource domain.ResourceType, outcome string)
}
