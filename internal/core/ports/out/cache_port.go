package out

import (
	"context"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
)

// ReportStorePort хранит последний отчет об удалении по ключу resource/id
type ReportStorePort interface {
	StoreReport(ctx context.Context, report domain.DeletionReport)
	GetReport(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, bool)
	InvalidateReports(ctx context.Context)
}
