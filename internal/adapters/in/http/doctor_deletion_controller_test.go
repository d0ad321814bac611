package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/clinicapi"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/credentials"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/guard"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/logger"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/metrics"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/services"
)

type stubUseCase struct {
	report      domain.DeletionReport
	err         error
	calls       []string
	reports     map[string]domain.DeletionReport
	invalidated bool
}

func (s *stubUseCase) DeleteDoctorCascade(ctx context.Context, doctorID int) (domain.DeletionReport, error) {
	return s.DeleteResource(ctx, domain.ResourceDoctors, doctorID)
}

func (s *stubUseCase) DeleteResource(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, error) {
	s.calls = append(s.calls, domain.ResourceKey(resource, id))
	return s.report, s.err
}

func (s *stubUseCase) LastReport(ctx context.Context, resource domain.ResourceType, id int) (domain.DeletionReport, bool) {
	report, ok := s.reports[domain.ResourceKey(resource, id)]
	return report, ok
}

func (s *stubUseCase) InvalidateReports(ctx context.Context) {
	s.invalidated = true
}

func testConfig(url string) *config.Config {
	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.ClinicAPI.URL = url
	cfg.ClinicAPI.Token = "secret"
	cfg.Auth.BasicClients = []config.ConfigBasicClient{{Username: "admin", Password: "pass"}}
	cfg.Cascade.Concurrency = 1
	cfg.Cascade.Policy = domain.FailurePolicySweep
	return cfg
}

func newRouter(useCase *stubUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewDoctorDeletionController(useCase, testConfig("http://clinic"), prometheus.NewRegistry(), logger.NewNopLogger()).
		RegisterRoutes(router)
	return router
}

func doRequest(router http.Handler, method, path string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth {
		req.SetBasicAuth("admin", "pass")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDeleteResource_RequiresBasicAuth(t *testing.T) {
	useCase := &stubUseCase{}
	router := newRouter(useCase)

	rec := doRequest(router, http.MethodDelete, "/api/v1/doctors/7", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/doctors/7", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, useCase.calls)
}

func TestDeleteResource_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusOK},
		{"in progress", fmt.Errorf("doctors/7: %w", domain.ErrDeletionInProgress), http.StatusConflict},
		{"not found", fmt.Errorf("%w: doctor 7: %w", domain.ErrDoctorDeleteFailed, domain.ErrNotFound), http.StatusNotFound},
		{"list failed", fmt.Errorf("%w: appointments: boom", domain.ErrListFailed), http.StatusBadGateway},
		{"dependents failed", &domain.CascadeError{DoctorID: 7, Failed: []domain.FailedRecord{{Resource: domain.ResourceAppointments, ID: 10}}}, http.StatusBadGateway},
		{"doctor failed", fmt.Errorf("%w: doctor 7: boom", domain.ErrDoctorDeleteFailed), http.StatusBadGateway},
		{"guard failed", errors.New("acquire deletion guard for doctors/7: redis down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCase := &stubUseCase{
				report: domain.DeletionReport{Resource: domain.ResourceDoctors, ResourceID: 7, Deleted: tt.err == nil},
				err:    tt.err,
			}
			router := newRouter(useCase)

			rec := doRequest(router, http.MethodDelete, "/api/v1/doctors/7", true)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, []string{"doctors/7"}, useCase.calls)

			var resp DeletionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, 7, resp.Report.ResourceID)
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), resp.Error)
			} else {
				assert.True(t, resp.Report.Deleted)
			}
		})
	}
}

func TestDeleteResource_InvalidTarget(t *testing.T) {
	useCase := &stubUseCase{}
	router := newRouter(useCase)

	rec := doRequest(router, http.MethodDelete, "/api/v1/nurses/7", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/v1/doctors/abc", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/v1/doctors/0", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, useCase.calls)
}

func TestGetReport(t *testing.T) {
	useCase := &stubUseCase{
		reports: map[string]domain.DeletionReport{
			"doctors/7": {
				Resource:   domain.ResourceDoctors,
				ResourceID: 7,
				Counts:     domain.DeletedCounts{Appointments: 2, Prescriptions: 1},
				Deleted:    true,
			},
		},
	}
	router := newRouter(useCase)

	rec := doRequest(router, http.MethodGet, "/api/v1/deletions/doctors/7", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DeletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Report.Counts.Total())
	assert.True(t, resp.Report.Deleted)

	rec = doRequest(router, http.MethodGet, "/api/v1/deletions/doctors/8", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newRouter(&stubUseCase{})

	rec := doRequest(router, http.MethodGet, "/health", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = doRequest(router, http.MethodGet, "/metrics", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// fakeClinic - REST API клиники в памяти
type fakeClinic struct {
	mu       sync.Mutex
	records  map[string]map[int]map[string]interface{}
	requests []string
	// onDelete вызывается после успешного удаления, путь вида /appointments/10
	onDelete func(path string)
}

func newFakeClinic() *fakeClinic {
	return &fakeClinic{
		records: map[string]map[int]map[string]interface{}{
			"doctors": {
				7: {"id": 7, "name": "Dr. House"},
				8: {"id": 8, "name": "Dr. Wilson"},
			},
			"appointments": {
				10: {"id": 10, "doctor_id": 7, "patient_id": 1},
				11: {"id": 11, "doctor_id": 8, "patient_id": 2},
				12: {"id": 12, "doctor_id": 7, "patient_id": 3},
			},
			"prescriptions": {
				20: {"id": 20, "doctor_id": 7, "patient_id": 1},
				21: {"id": 21, "doctor_id": 8, "patient_id": 2},
			},
		},
	}
}

func (f *fakeClinic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection, ok := f.records[parts[0]]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		ids := make([]int, 0, len(collection))
		for id := range collection {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		list := make([]map[string]interface{}, 0, len(ids))
		for _, id := range ids {
			list = append(list, collection[id])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	case r.Method == http.MethodDelete && len(parts) == 2:
		var id int
		if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, exists := collection[id]; !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(collection, id)
		if f.onDelete != nil {
			f.onDelete(r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeClinic) has(resource string, id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[resource][id]
	return ok
}

func newEndToEndRouter(t *testing.T, clinic *fakeClinic) *gin.Engine {
	t.Helper()
	upstream := httptest.NewServer(clinic)
	t.Cleanup(upstream.Close)

	cfg := testConfig(upstream.URL)
	log := logger.NewNopLogger()
	registry := prometheus.NewRegistry()

	clinicAPI := clinicapi.NewClinicAPIAdapter(cfg, credentials.NewStaticProvider(cfg.ClinicAPI.Token), log)
	service := services.NewDoctorDeletionService(
		clinicAPI,
		guard.NewMemoryGuard(),
		nil,
		metrics.NewDeletionMetrics(registry),
		log,
		cfg,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewDoctorDeletionController(service, cfg, registry, log).RegisterRoutes(router)
	return router
}

func TestDeleteDoctor_EndToEnd(t *testing.T) {
	clinic := newFakeClinic()
	router := newEndToEndRouter(t, clinic)

	rec := doRequest(router, http.MethodDelete, "/api/v1/doctors/7", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp DeletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Report.Deleted)
	assert.Equal(t, domain.DeletedCounts{Appointments: 2, Prescriptions: 1}, resp.Report.Counts)
	assert.Empty(t, resp.Report.Failed)

	assert.False(t, clinic.has("doctors", 7))
	assert.False(t, clinic.has("appointments", 10))
	assert.False(t, clinic.has("appointments", 12))
	assert.False(t, clinic.has("prescriptions", 20))

	assert.True(t, clinic.has("doctors", 8))
	assert.True(t, clinic.has("appointments", 11))
	assert.True(t, clinic.has("prescriptions", 21))

	// Врач удаляется последним запросом
	last := clinic.requests[len(clinic.requests)-1]
	assert.Equal(t, "DELETE /doctors/7", last)

	// Повторное удаление: врача уже нет
	rec = doRequest(router, http.MethodDelete, "/api/v1/doctors/7", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodGet, "/metrics", false)
	assert.Contains(t, rec.Body.String(), "clinic_admin_deletion")
}

func TestDeleteDoctor_ClientDisconnectDoesNotInterruptCascade(t *testing.T) {
	clinic := newFakeClinic()
	router := newEndToEndRouter(t, clinic)

	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Клиент отключается сразу после первого удаления
	clinic.onDelete = func(path string) {
		if path == "/appointments/10" {
			cancel()
		}
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/doctors/7", nil).WithContext(reqCtx)
	req.SetBasicAuth("admin", "pass")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp DeletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Report.Deleted)
	assert.Empty(t, resp.Report.Failed)
	assert.Equal(t, domain.DeletedCounts{Appointments: 2, Prescriptions: 1}, resp.Report.Counts)

	assert.Equal(t, []string{
		"GET /appointments",
		"GET /prescriptions",
		"DELETE /appointments/10",
		"DELETE /appointments/12",
		"DELETE /prescriptions/20",
		"DELETE /doctors/7",
	}, clinic.requests)
}
