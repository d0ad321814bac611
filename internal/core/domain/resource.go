package domain

import "fmt"

// ResourceType - имя коллекции в REST API клиники, оно же сегмент пути
type ResourceType string

const (
	ResourceDoctors       ResourceType = "doctors"
	ResourceAppointments  ResourceType = "appointments"
	ResourcePrescriptions ResourceType = "prescriptions"
	ResourcePatients      ResourceType = "patients"
	ResourceDiagnoses     ResourceType = "diagnoses"
)

var knownResources = map[ResourceType]struct{}{
	ResourceDoctors:       {},
	ResourceAppointments:  {},
	ResourcePrescriptions: {},
	ResourcePatients:      {},
	ResourceDiagnoses:     {},
}

func ParseResourceType(s string) (ResourceType, error) {
	r := ResourceType(s)
	if _, ok := knownResources[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
	}
	return r, nil
}

// ResourceKey - ключ отчета в хранилище и в guard, например "doctors/7"
func ResourceKey(resource ResourceType, id int) string {
	return fmt.Sprintf("%s/%d", resource, id)
}
