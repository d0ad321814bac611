package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
	"golang.org/x/sync/errgroup"
)

func SelectDoctorAppointments(appointments []domain.Appointment, doctorID int) []domain.Appointment {
	selected := make([]domain.Appointment, 0)
	for _, appointment := range appointments {
		if appointment.DoctorID == doctorID {
			selected = append(selected, appointment)
		}
	}
	return selected
}

func SelectDoctorPrescriptions(prescriptions []domain.Prescription, doctorID int) []domain.Prescription {
	selected := make([]domain.Prescription, 0)
	for _, prescription := range prescriptions {
		if prescription.DoctorID == doctorID {
			selected = append(selected, prescription)
		}
	}
	return selected
}

// cascade удаляет записи на прием и рецепты врача. Сам врач здесь не удаляется.
// Отката нет: уже удаленные записи остаются удаленными.
func (s *DoctorDeletionService) cascade(ctx context.Context, doctorID int, report *domain.DeletionReport) error {
	appointments, err := s.clinicPort.ListAppointments(ctx)
	if err != nil {
		s.logger.Error("doctor_deletion.appointments.fetch_failed", out.LogFields{
			"doctorId": doctorID,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: appointments: %w", domain.ErrListFailed, err)
	}
	doctorAppointments := SelectDoctorAppointments(appointments, doctorID)

	prescriptions, err := s.clinicPort.ListPrescriptions(ctx)
	if err != nil {
		s.logger.Error("doctor_deletion.prescriptions.fetch_failed", out.LogFields{
			"doctorId": doctorID,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: prescriptions: %w", domain.ErrListFailed, err)
	}
	doctorPrescriptions := SelectDoctorPrescriptions(prescriptions, doctorID)

	s.logger.Debug("doctor_deletion.dependents.selected", out.LogFields{
		"doctorId":           doctorID,
		"appointmentsTotal":  len(appointments),
		"appointments":       len(doctorAppointments),
		"prescriptionsTotal": len(prescriptions),
		"prescriptions":      len(doctorPrescriptions),
	})

	appointmentIDs := make([]int, 0, len(doctorAppointments))
	for _, appointment := range doctorAppointments {
		appointmentIDs = append(appointmentIDs, appointment.ID)
	}
	deleted, failed, skipped := s.sweep(ctx, domain.ResourceAppointments, appointmentIDs)
	report.Counts.Appointments = deleted
	report.Failed = append(report.Failed, failed...)
	report.Skipped = append(report.Skipped, skipped...)

	prescriptionIDs := make([]int, 0, len(doctorPrescriptions))
	for _, prescription := range doctorPrescriptions {
		prescriptionIDs = append(prescriptionIDs, prescription.ID)
	}

	if len(report.Failed) > 0 && s.policy == domain.FailurePolicyAbort {
		// Рецепты не трогали, но они остаются в отчете для повторного запуска
		for _, id := range prescriptionIDs {
			report.Skipped = append(report.Skipped, domain.SkippedRecord{Resource: domain.ResourcePrescriptions, ID: id})
		}
		return &domain.CascadeError{DoctorID: doctorID, Failed: report.Failed}
	}

	deleted, failed, skipped = s.sweep(ctx, domain.ResourcePrescriptions, prescriptionIDs)
	report.Counts.Prescriptions = deleted
	report.Failed = append(report.Failed, failed...)
	report.Skipped = append(report.Skipped, skipped...)

	if len(report.Failed) > 0 {
		return &domain.CascadeError{DoctorID: doctorID, Failed: report.Failed}
	}

	s.logger.Info("doctor_deletion.dependents.deleted", out.LogFields{
		"doctorId":      doctorID,
		"appointments":  report.Counts.Appointments,
		"prescriptions": report.Counts.Prescriptions,
	})

	return nil
}

// sweep удаляет записи одного типа. При concurrency = 1 строго по одной в порядке списка,
// иначе параллельно с ограничением. Возвращает число удаленных, ошибки и записи,
// к которым не приступали после остановки по политике abort.
func (s *DoctorDeletionService) sweep(ctx context.Context, resource domain.ResourceType, ids []int) (int, []domain.FailedRecord, []domain.SkippedRecord) {
	attempted := make([]bool, len(ids))
	results := make([]error, len(ids))

	if s.concurrency <= 1 {
		for i, id := range ids {
			attempted[i] = true
			results[i] = s.deleteDependent(ctx, resource, id)
			if results[i] != nil && s.policy == domain.FailurePolicyAbort {
				break
			}
		}
	} else {
		// gctx используется только как флаг остановки, сами запросы идут с ctx,
		// чтобы не обрывать уже отправленные удаления
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				attempted[i] = true
				results[i] = s.deleteDependent(ctx, resource, id)
				if results[i] != nil && s.policy == domain.FailurePolicyAbort {
					return results[i]
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	deleted := 0
	failed := make([]domain.FailedRecord, 0)
	skipped := make([]domain.SkippedRecord, 0)
	for i, id := range ids {
		if !attempted[i] {
			// Пропущенные после отмены контекста считаем неудаленными
			if ctx.Err() != nil {
				failed = append(failed, domain.FailedRecord{
					Resource: resource,
					ID:       id,
					Error:    ctx.Err().Error(),
				})
				continue
			}
			skipped = append(skipped, domain.SkippedRecord{Resource: resource, ID: id})
			continue
		}
		if results[i] != nil {
			failed = append(failed, domain.FailedRecord{
				Resource: resource,
				ID:       id,
				Status:   statusCodeOf(results[i]),
				Error:    results[i].Error(),
			})
			continue
		}
		deleted++
	}

	return deleted, failed, skipped
}

func (s *DoctorDeletionService) deleteDependent(ctx context.Context, resource domain.ResourceType, id int) error {
	err := s.clinicPort.Delete(ctx, resource, id)
	switch {
	case err == nil:
		s.observeDependentDelete(resource, OutcomeDeleted)
		return nil
	case errors.Is(err, domain.ErrNotFound):
		// Уже удалена, удалять нечего
		s.logger.Debug("doctor_deletion.dependent.already_deleted", out.LogFields{
			"resource": resource,
			"id":       id,
		})
		s.observeDependentDelete(resource, OutcomeNotFound)
		return nil
	}

	s.logger.Error("doctor_deletion.dependent.delete_failed", out.LogFields{
		"resource": resource,
		"id":       id,
		"error":    err.Error(),
	})
	s.observeDependentDelete(resource, OutcomeFailed)
	return err
}

func statusCodeOf(err error) int {
	var statusErr interface{ StatusCode() int }
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode()
	}
	return 0
}
