package domain

import (
	"fmt"
	"strconv"
)

// Column names of the evidence-request view.
const (
	EvidenceColumnID          = "evidence_request_id"
	EvidenceColumnDescription = "evidence_description"
	EvidenceColumnControlName = "control_name"
	EvidenceColumnControlUUID = "control_uuid"
	EvidenceColumnAuditName   = "audit_name"
	EvidenceColumnAuditUUID   = "audit_uuid"
)

// EvidenceRow is one row of the evidence-request view joining a request with
// its control and audit. Columns beyond the known ones are kept as-is.
type EvidenceRow map[string]any

// String returns the column as text, or "" when missing or null.
func (r EvidenceRow) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// ID returns the primary identifier of the row.
func (r EvidenceRow) ID() string {
	return r.String(EvidenceColumnID)
}
