package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

// --- MockClinicAPI ---
var _ out.ClinicAPIPort = (*MockClinicAPI)(nil)

// MockClinicAPI отдает списки из памяти и записывает вызовы в порядке их выполнения
type MockClinicAPI struct {
	mu    sync.Mutex
	calls []string

	Appointments  []domain.Appointment
	Prescriptions []domain.Prescription

	ListAppointmentsErr  error
	ListPrescriptionsErr error
	// DeleteErrs: ключ "appointments/10" -> ошибка удаления
	DeleteErrs map[string]error
	// Удаленные записи пропадают из списков, как на настоящем API
	RemoveOnDelete bool
	// Задержка перед удалением, для проверки параллельного режима
	DeleteDelay time.Duration
}

func (m *MockClinicAPI) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockClinicAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *MockClinicAPI) DeleteCalls() []string {
	var deletes []string
	for _, c := range m.Calls() {
		if len(c) > 7 && c[:7] == "DELETE " {
			deletes = append(deletes, c)
		}
	}
	return deletes
}

func (m *MockClinicAPI) ListAppointments(ctx context.Context) ([]domain.Appointment, error) {
	m.record("GET /appointments")
	if m.ListAppointmentsErr != nil {
		return nil, m.ListAppointmentsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Appointment(nil), m.Appointments...), nil
}

func (m *MockClinicAPI) ListPrescriptions(ctx context.Context) ([]domain.Prescription, error) {
	m.record("GET /prescriptions")
	if m.ListPrescriptionsErr != nil {
		return nil, m.ListPrescriptionsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Prescription(nil), m.Prescriptions...), nil
}

func (m *MockClinicAPI) Delete(ctx context.Context, resource domain.ResourceType, id int) error {
	if m.DeleteDelay > 0 {
		time.Sleep(m.DeleteDelay)
	}
	m.record(fmt.Sprintf("DELETE /%s/%d", resource, id))

	if err, ok := m.DeleteErrs[domain.ResourceKey(resource, id)]; ok {
		return err
	}

	if m.RemoveOnDelete {
		m.mu.Lock()
		defer m.mu.Unlock()
		switch resource {
		case domain.ResourceAppointments:
			kept := m.Appointments[:0]
			for _, a := range m.Appointments {
				if a.ID != id {
					kept = append(kept, a)
				}
			}
			m.Appointments = kept
		case domain.ResourcePrescriptions:
			kept := m.Prescriptions[:0]
			for _, p := range m.Prescriptions {
				if p.ID != id {
					kept = append(kept, p)
				}
			}
			m.Prescriptions = kept
		}
	}
	return nil
}

// --- MockReportStore ---
var _ out.ReportStorePort = (*MockReportStore)(nil)

type MockReportStore struct {
	mu      sync.Mutex
	reports map[string]domain.DeletionReport
}

func NewMockReportStore() *MockReportStore {
	return &MockReportStore{reports: make(map[string]domain.DeletionReport)}
}

func (m *MockReportStore) StoreReport(ctx context.Context, report domain.DeletionReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.Key()] = report
}

func (m *MockReportStore) GetReport(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[domain.ResourceKey(resource, id)]
	return r, ok
}

func (m *MockReportStore) InvalidateReports(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = make(map[string]domain.DeletionReport)
}

// --- MockGuard ---
var _ out.InFlightGuardPort = (*MockGuard)(nil)

type MockGuard struct {
	mu       sync.Mutex
	busy     map[string]bool
	Released []string
	Err      error
}

func NewMockGuard() *MockGuard {
	return &MockGuard{busy: make(map[string]bool)}
}

func (m *MockGuard) Acquire(ctx context.Context, key string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[key] {
		return false, nil
	}
	m.busy[key] = true
	return true, nil
}

func (m *MockGuard) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.busy, key)
	m.Released = append(m.Released, key)
	return nil
}

// --- MockMetrics ---
var _ out.MetricsPort = (*MockMetrics)(nil)

type MockMetrics struct {
	mu         sync.Mutex
	Deletions  []string
	Dependents []string
}

func (m *MockMetrics) ObserveDeletion(resource domain.ResourceType, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletions = append(m.Deletions, string(resource)+":"+outcome)
}

func (m *MockMetrics) ObserveDependentDelete(resource domain.ResourceType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dependents = append(m.Dependents, string(resource)+":"+outcome)
}

// --- nopLogger ---
type nopLogger struct{}

func (nopLogger) Debug(string, out.LogFields) {}
func (nopLogger) Info(string, out.LogFields) {}
func (nopLogger) Warn(string, out.LogFields) {}
func (nopLogger) Error(string, out.LogFields) {}
func (l nopLogger) WithFields(out.LogFields) out.LoggerPort { return l }
func (l nopLogger) WithModule(string) out.LoggerPort { return l }
