package in

import (
	"context"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
)

// DoctorDeletionService - удаление врача вместе с его записями на прием и рецептами.
// Сейчас каскад выполняется на клиенте, серверный каскад может заменить реализацию
// без изменений у вызывающих.
type DoctorDeletionService interface {
	DeleteDoctorCascade(ctx context.Context, doctorID int) (domain.DeletionReport, error)

	// Удаление любой записи; для doctors выполняется каскад
	DeleteResource(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, error)

	LastReport(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, bool)
	InvalidateReports(ctx context.Context)
}
