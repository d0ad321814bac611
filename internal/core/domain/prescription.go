package domain

import (
	"github.com/suchimauz/clinic-admin/internal/core/json_types"
)

type Prescription struct {
	ID          int                  `json:"id"`
	DoctorID    int                  `json:"doctor_id"`
	PatientID   int                  `json:"patient_id"`
	DiagnosisID int                  `json:"diagnosis_id"`
	Medication  string               `json:"medication"`
	Dosage      string               `json:"dosage"`
	StartDate   json_types.Timestamp `json:"start_date"`
	EndDate     json_types.Timestamp `json:"end_date"`
}
