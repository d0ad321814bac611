package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

const (
	OutcomeDeleted         = "deleted"
	OutcomeNotFound        = "not_found"
	OutcomeFailed          = "failed"
	OutcomeListFailed      = "list_failed"
	OutcomeDependentFailed = "dependent_failed"
	OutcomeInProgress      = "in_progress"
)

type DoctorDeletionService struct {
	clinicPort  out.ClinicAPIPort
	guardPort   out.InFlightGuardPort
	reportPort  out.ReportStorePort
	metricsPort out.MetricsPort
	logger      out.LoggerPort

	concurrency int
	policy      domain.FailurePolicy
	now         func() time.Time
}

func NewDoctorDeletionService(
	clinicPort out.ClinicAPIPort,
	guardPort out.InFlightGuardPort,
	reportPort out.ReportStorePort,
	metricsPort out.MetricsPort,
	logger out.LoggerPort,
	cfg *config.Config,
) *DoctorDeletionService {
	concurrency := cfg.Cascade.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &DoctorDeletionService{
		clinicPort:  clinicPort,
		guardPort:   guardPort,
		reportPort:  reportPort,
		metricsPort: metricsPort,
		logger:      logger.WithModule("DoctorDeletionService"),
		concurrency: concurrency,
		policy:      cfg.Cascade.Policy,
		now:         time.Now,
	}
}

func (s *DoctorDeletionService) DeleteDoctorCascade(ctx context.Context, doctorID int) (domain.DeletionReport, error) {
	return s.run(ctx, domain.ResourceDoctors, doctorID, func(report *domain.DeletionReport) error {
		if err := s.cascade(ctx, doctorID, report); err != nil {
			return err
		}

		// Врача удаляем только после того, как все зависимые записи удалены
		if err := s.clinicPort.Delete(ctx, domain.ResourceDoctors, doctorID); err != nil {
			s.logger.Error("doctor_deletion.doctor.delete_failed", out.LogFields{
				"doctorId": doctorID,
				"error":    err.Error(),
			})
			return fmt.Errorf("%w: doctor %d: %w", domain.ErrDoctorDeleteFailed, doctorID, err)
		}

		report.Deleted = true
		return nil
	})
}

func (s *DoctorDeletionService) DeleteResource(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, error) {
	if _, err := domain.ParseResourceType(string(resource)); err != nil {
		return domain.DeletionReport{}, err
	}

	if resource == domain.ResourceDoctors {
		return s.DeleteDoctorCascade(ctx, id)
	}

	return s.run(ctx, resource, id, func(report *domain.DeletionReport) error {
		if err := s.clinicPort.Delete(ctx, resource, id); err != nil {
			s.logger.Error("resource_deletion.delete_failed", out.LogFields{
				"resource": resource,
				"id":       id,
				"error":    err.Error(),
			})
			return fmt.Errorf("delete %s: %w", domain.ResourceKey(resource, id), err)
		}

		report.Deleted = true
		return nil
	})
}

func (s *DoctorDeletionService) LastReport(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, bool) {
	if s.reportPort == nil {
		return domain.DeletionReport{}, false
	}
	return s.reportPort.GetReport(ctx, resource, id)
}

func (s *DoctorDeletionService) InvalidateReports(ctx context.Context) {
	if s.reportPort == nil {
		return
	}
	s.reportPort.InvalidateReports(ctx)
	s.logger.Info("deletion.reports.invalidated", out.LogFields{})
}

// run оборачивает удаление: guard от повторного запуска, отчет, метрики
func (s *DoctorDeletionService) run(
	ctx context.Context,
	resource domain.ResourceType,
	id int,
	fn func(report *domain.DeletionReport) error,
) (domain.DeletionReport, error) {
	key := domain.ResourceKey(resource, id)

	if s.guardPort != nil {
		acquired, err := s.guardPort.Acquire(ctx, key)
		if err != nil {
			s.logger.Error("deletion.guard.acquire_failed", out.LogFields{
				"key":   key,
				"error": err.Error(),
			})
			return domain.DeletionReport{}, fmt.Errorf("acquire deletion guard for %s: %w", key, err)
		}
		if !acquired {
			s.logger.Warn("deletion.guard.in_progress", out.LogFields{
				"key": key,
			})
			s.observeDeletion(resource, OutcomeInProgress, 0)
			return domain.DeletionReport{}, fmt.Errorf("%s: %w", key, domain.ErrDeletionInProgress)
		}

		defer func() {
			if err := s.guardPort.Release(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Error("deletion.guard.release_failed", out.LogFields{
					"key":   key,
					"error": err.Error(),
				})
			}
		}()
	}

	report := domain.NewDeletionReport(resource, id, s.now())
	s.logger.Info("deletion.started", out.LogFields{
		"reportId": report.ID,
		"key":      key,
	})

	err := fn(&report)
	report.FinishedAt = s.now()

	outcome := OutcomeDeleted
	if err != nil {
		report.Error = err.Error()
		outcome = outcomeOf(err)
		s.logger.Error("deletion.failed", out.LogFields{
			"reportId": report.ID,
			"key":      key,
			"outcome":  outcome,
			"error":    err.Error(),
		})
	} else {
		s.logger.Info("deletion.completed", out.LogFields{
			"reportId":      report.ID,
			"key":           key,
			"appointments":  report.Counts.Appointments,
			"prescriptions": report.Counts.Prescriptions,
		})
	}

	s.observeDeletion(resource, outcome, report.Duration())
	if s.reportPort != nil {
		s.reportPort.StoreReport(ctx, report)
	}

	return report, err
}

func (s *DoctorDeletionService) observeDeletion(resource domain.ResourceType, outcome string, duration time.Duration) {
	if s.metricsPort != nil {
		s.metricsPort.ObserveDeletion(resource, outcome, duration)
	}
}

func (s *DoctorDeletionService) observeDependentDelete(resource domain.ResourceType, outcome string) {
	if s.metricsPort != nil {
		s.metricsPort.ObserveDependentDelete(resource, outcome)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrListFailed):
		return OutcomeListFailed
	case errors.Is(err, domain.ErrDependentDeleteFailed):
		return OutcomeDependentFailed
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	}
	return OutcomeFailed
}
