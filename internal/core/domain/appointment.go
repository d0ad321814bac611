package domain

import (
	"github.com/suchimauz/clinic-admin/internal/core/json_types"
)

type Appointment struct {
	ID              int                  `json:"id"`
	DoctorID        int                  `json:"doctor_id"`
	PatientID       int                  `json:"patient_id"`
	AppointmentDate json_types.Timestamp `json:"appointment_date"`
}
