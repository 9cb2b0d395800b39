package models

import (
	"fmt"
	"time"
)

// MaintenanceType is the kind of maintenance a work order describes.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "Preventive"
	MaintenanceCorrective MaintenanceType = "Corrective"
	MaintenancePredictive MaintenanceType = "Predictive"
)

// MaintenanceTypes lists the valid maintenance types in display order.
var MaintenanceTypes = []MaintenanceType{MaintenancePreventive, MaintenanceCorrective, MaintenancePredictive}

// Label returns the name technicians use for the maintenance type.
func (t MaintenanceType) Label() string {
	switch t {
	case MaintenancePreventive:
		return "Preventiva"
	case MaintenanceCorrective:
		return "Corretiva"
	case MaintenancePredictive:
		return "Preditiva"
	default:
		return string(t)
	}
}

// ParseMaintenanceType converts a stored value into a MaintenanceType.
func ParseMaintenanceType(s string) (MaintenanceType, error) {
	for _, t := range MaintenanceTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown maintenance type %q", s)
}

// WorkOrder is a maintenance ticket. It is open while ClosedAt is nil.
type WorkOrder struct {
	ID                 int64           `db:"id" json:"id"`
	OwnerID            int64           `db:"owner_id" json:"ownerID"`
	MachineNumber      string          `db:"machine_number" json:"machineNumber"`
	MachineModel       string          `db:"machine_model" json:"machineModel"`
	MaintenanceType    MaintenanceType `db:"maintenance_type" json:"maintenanceType"`
	ProblemDescription string          `db:"problem_description" json:"problemDescription"`
	OpenedAt           time.Time       `db:"opened_at" json:"openedAt"`
	ClosedAt           *time.Time      `db:"closed_at" json:"closedAt,omitempty"`
	SolutionApplied    *string         `db:"solution_applied" json:"solutionApplied,omitempty"`
	PartReplaced       bool            `db:"part_replaced" json:"partReplaced"`
	PartDescription    *string         `db:"part_description" json:"partDescription,omitempty"`
	PartTag            *string         `db:"part_tag" json:"partTag,omitempty"`
	ServiceCompleted   *bool           `db:"service_completed" json:"serviceCompleted,omitempty"`
	Notes              *string         `db:"notes" json:"notes,omitempty"`
}

// IsOpen reports whether the work order has not been closed yet.
func (o WorkOrder) IsOpen() bool {
	return o.ClosedAt == nil
}

// OpenOrderRef is the short form of an open work order used to build selection options.
type OpenOrderRef struct {
	ID            int64  `db:"id"`
	MachineNumber string `db:"machine_number"`
}

// ClosingFields carries everything the close-order flow collects.
type ClosingFields struct {
	ClosedAt         time.Time
	SolutionApplied  string
	PartReplaced     bool
	PartDescription  *string
	PartTag          *string
	ServiceCompleted bool
	Notes            *string
}

// Scan implements sql.Scanner and rejects maintenance types the bot does not know.
func (t *MaintenanceType) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("maintenance type: unsupported column type %T", src)
	}
	parsed, err := ParseMaintenanceType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
