package out

import (
	"context"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
)

type ClinicAPIPort interface {
	// Списки целиком, фильтра по doctor_id на стороне API нет
	ListAppointments(ctx context.Context) ([]domain.Appointment, error)
	ListPrescriptions(ctx context.Context) ([]domain.Prescription, error)

	// Удаление одной записи: DELETE /{resource}/{id}.
	// 404 возвращается как domain.ErrNotFound
	Delete(ctx context.Context, resource domain.ResourceType, id int) error
}
