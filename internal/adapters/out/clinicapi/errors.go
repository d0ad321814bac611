package clinicapi

import (
	"fmt"
	"net/http"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
)

// StatusError - ответ API с неуспешным статусом
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status code: %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: unexpected status code: %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *StatusError) StatusCode() int {
	return e.Status
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}
