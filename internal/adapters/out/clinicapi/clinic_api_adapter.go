package clinicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

const maxErrorBody = 512

type ClinicAPIAdapter struct {
	client      *http.Client
	baseURL     string
	credentials out.CredentialPort
	logger      out.LoggerPort
}

func NewClinicAPIAdapter(cfg *config.Config, credentials out.CredentialPort, logger out.LoggerPort) *ClinicAPIAdapter {
	return &ClinicAPIAdapter{
		client:      &http.Client{Timeout: cfg.ClinicAPI.Timeout},
		baseURL:     strings.TrimSuffix(cfg.ClinicAPI.URL, "/"),
		credentials: credentials,
		logger:      logger,
	}
}

func (a *ClinicAPIAdapter) ListAppointments(ctx context.Context) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	if err := a.list(ctx, domain.ResourceAppointments, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (a *ClinicAPIAdapter) ListPrescriptions(ctx context.Context) ([]domain.Prescription, error) {
	var prescriptions []domain.Prescription
	if err := a.list(ctx, domain.ResourcePrescriptions, &prescriptions); err != nil {
		return nil, err
	}
	return prescriptions, nil
}

func (a *ClinicAPIAdapter) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	var doctors []domain.Doctor
	if err := a.list(ctx, domain.ResourceDoctors, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (a *ClinicAPIAdapter) list(ctx context.Context, resource domain.ResourceType, dst interface{}) error {
	a.logger.Debug("clinic_api.list.fetch", out.LogFields{
		"resource": resource,
	})

	resp, err := a.do(ctx, http.MethodGet, "/"+string(resource))
	if err != nil {
		a.logger.Error("clinic_api.list.fetch_failed", out.LogFields{
			"resource": resource,
			"error":    err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := newStatusError(resp)
		a.logger.Error("clinic_api.list.fetch_failed", out.LogFields{
			"resource": resource,
			"status":   resp.StatusCode,
		})
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		a.logger.Error("clinic_api.list.decode_failed", out.LogFields{
			"resource": resource,
			"error":    err.Error(),
		})
		return fmt.Errorf("decode %s: %w", resource, err)
	}

	return nil
}

func (a *ClinicAPIAdapter) Delete(ctx context.Context, resource domain.ResourceType, id int) error {
	path := fmt.Sprintf("/%s/%d", resource, id)

	resp, err := a.do(ctx, http.MethodDelete, path)
	if err != nil {
		a.logger.Error("clinic_api.delete.failed", out.LogFields{
			"path":  path,
			"error": err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.logger.Warn("clinic_api.delete.unexpected_status", out.LogFields{
			"path":   path,
			"status": resp.StatusCode,
		})
		return newStatusError(resp)
	}

	// Тело ответа не нужно, но дочитываем для переиспользования соединения
	_, _ = io.Copy(io.Discard, resp.Body)

	a.logger.Debug("clinic_api.delete.success", out.LogFields{
		"path": path,
	})
	return nil
}

// Провайдер токена, который умеет сбросить протухший токен
type invalidator interface {
	Invalidate()
}

func (a *ClinicAPIAdapter) do(ctx context.Context, method string, path string) (*http.Response, error) {
	resp, err := a.send(ctx, method, path)
	if err != nil {
		return nil, err
	}

	// Токен отозван или истек раньше exp: один повтор с новым токеном
	if inv, ok := a.credentials.(invalidator); ok && resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		a.logger.Warn("clinic_api.token.rejected", out.LogFields{
			"method": method,
			"path":   path,
		})
		inv.Invalidate()

		return a.send(ctx, method, path)
	}

	return resp, nil
}

func (a *ClinicAPIAdapter) send(ctx context.Context, method string, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	token, err := a.credentials.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("get api token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method: resp.Request.Method,
		Path:   resp.Request.URL.Path,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}
