package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type FailurePolicy string

const (
	// Удаляем все остальные зависимые записи и собираем ошибки
	FailurePolicySweep FailurePolicy = "sweep"
	// Останавливаемся на первой ошибке
	FailurePolicyAbort FailurePolicy = "abort"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case FailurePolicySweep, FailurePolicyAbort:
		return FailurePolicy(s), nil
	case "":
		return FailurePolicySweep, nil
	}
	return "", fmt.Errorf("unknown failure policy %q", s)
}

type DeletedCounts struct {
	Appointments  int `json:"appointments"`
	Prescriptions int `json:"prescriptions"`
}

func (c DeletedCounts) Total() int {
	return c.Appointments + c.Prescriptions
}

type FailedRecord struct {
	Resource ResourceType `json:"resource"`
	ID       int          `json:"id"`
	Status   int          `json:"status,omitempty"`
	Error    string       `json:"error"`
}

// SkippedRecord - зависимая запись, к удалению которой не приступали (политика abort)
type SkippedRecord struct {
	Resource ResourceType `json:"resource"`
	ID       int          `json:"id"`
}

type DeletionReport struct {
	ID         uuid.UUID       `json:"id"`
	Resource   ResourceType    `json:"resource"`
	ResourceID int             `json:"resourceId"`
	Counts     DeletedCounts   `json:"counts"`
	Failed     []FailedRecord  `json:"failed,omitempty"`
	Skipped    []SkippedRecord `json:"skipped,omitempty"`
	Deleted    bool            `json:"deleted"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

func NewDeletionReport(resource ResourceType, id int, now time.Time) DeletionReport {
	return DeletionReport{
		ID:         uuid.New(),
		Resource:   resource,
		ResourceID: id,
		StartedAt:  now,
	}
}

func (r DeletionReport) Key() string {
	return ResourceKey(r.Resource, r.ResourceID)
}

func (r DeletionReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
