package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmko-sec/secdash/internal/domain"
)

// FieldSpec declares how one canonical field is derived from a raw
// export row: candidate source keys in priority order, plus a default
// for rows where none of them carries a value.
type FieldSpec struct {
	Name    string
	Keys    []string
	Default func(index int) string
}

// Mapping is the full field table for one record domain.
type Mapping []FieldSpec

// Apply resolves every field of the mapping against one raw row.
// The first candidate key holding a non-empty value wins; otherwise
// the default fires. Index is the row's position in the upload, used
// by generated placeholders. Pure, never fails.
func (m Mapping) Apply(raw domain.RawRecord, index int) map[string]string {
	out := make(map[string]string, len(m))
	for _, f := range m {
		val, ok := lookupRaw(raw, f.Keys)
		if !ok {
			if f.Default != nil {
				val = f.Default(index)
			}
		}
		out[f.Name] = val
	}
	return out
}

// lookupRaw walks candidate keys and stringifies the first usable hit.
func lookupRaw(raw domain.RawRecord, keys []string) (string, bool) {
	for _, k := range keys {
		v, present := raw[k]
		if !present || v == nil {
			continue
		}
		s := stringify(v)
		if s != "" {
			return s, true
		}
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

// parseBool normalizes the boolean-like spellings seen in exports.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "enabled", "on":
		return true
	}
	return false
}

func literal(s string) func(int) string {
	return func(int) string { return s }
}

// placeholderSerial yields a stable serial-looking string for rows
// that came in without one, keyed off the row index so repeated
// normalization of the same upload stays deterministic.
func placeholderSerial(index int) string {
	return fmt.Sprintf("SN-%06X", (index+1)*0x9E3D&0xFFFFFF)
}

func placeholderUser(index int) string {
	return fmt.Sprintf("User%d", index+1)
}

// Violation categories with special meaning in risk classification.
const (
	CategoryCompromised  = "compromised"
	CategoryNoPassword   = "no_password"
	CategoryNotEncrypted = "not_encrypted"
)

// ClassifyRisk runs the risk decision table; first matching rule wins.
func ClassifyRisk(violationCategory, compliance string) domain.RiskLevel {
	switch strings.ToLower(violationCategory) {
	case CategoryCompromised:
		return domain.RiskCritical
	case CategoryNoPassword:
		return domain.RiskHigh
	case CategoryNotEncrypted:
		return domain.RiskMedium
	}
	if !strings.EqualFold(compliance, "Compliant") {
		return domain.RiskMedium
	}
	return domain.RiskLow
}

var deviceMapping = Mapping{
	{Name: "username", Keys: []string{"Username", "username", "User", "user", "UserName"}, Default: placeholderUser},
	{Name: "email", Keys: []string{"Email", "email", "Mail", "UserEmail"}},
	{Name: "platform", Keys: []string{"Platform", "platform", "OS", "os", "DeviceType", "device_type"}, Default: literal("Unknown")},
	{Name: "os_version", Keys: []string{"OSVersion", "os_version", "OsVersion", "Version"}},
	{Name: "serial_number", Keys: []string{"SerialNumber", "serial_number", "Serial", "serial", "SN"}, Default: placeholderSerial},
	{Name: "enrollment", Keys: []string{"Enrollment", "enrollment", "EnrollmentStatus", "enrollment_status"}, Default: literal("Unknown")},
	{Name: "compliance", Keys: []string{"Compliance", "compliance", "ComplianceStatus", "compliance_status"}, Default: literal("Unknown")},
	{Name: "last_seen", Keys: []string{"LastSeen", "last_seen", "LastCheckIn", "last_check_in", "LastContact"}},
	{Name: "encrypted", Keys: []string{"Encrypted", "encrypted", "IsEncrypted", "FileVault", "BitLocker"}, Default: literal("N")},
	{Name: "violation", Keys: []string{"Violation", "violation", "ViolationType", "violation_type", "Issue"}},
}

var violationMapping = Mapping{
	{Name: "username", Keys: []string{"Username", "username", "User", "user"}, Default: placeholderUser},
	{Name: "device", Keys: []string{"Device", "device", "DeviceName", "Hostname", "hostname"}, Default: literal("Unknown")},
	{Name: "serial_number", Keys: []string{"SerialNumber", "serial_number", "Serial", "serial"}, Default: placeholderSerial},
	{Name: "category", Keys: []string{"Category", "category", "ViolationType", "violation_type", "Type"}, Default: literal("unknown")},
	{Name: "severity", Keys: []string{"Severity", "severity", "Level", "level"}, Default: literal("low")},
	{Name: "detected_at", Keys: []string{"DetectedAt", "detected_at", "Detected", "Date", "date", "Timestamp"}},
	{Name: "resolved", Keys: []string{"Resolved", "resolved", "IsResolved", "Closed"}, Default: literal("N")},
}

var incidentMapping = Mapping{
	{Name: "id", Keys: []string{"ID", "Id", "id", "IncidentID", "incident_id"}, Default: func(i int) string { return fmt.Sprintf("INC-%04d", i+1) }},
	{Name: "source", Keys: []string{"Source", "source", "Tool", "tool", "Product"}, Default: literal("unknown")},
	{Name: "title", Keys: []string{"Title", "title", "Name", "Summary", "Description"}, Default: literal("Untitled incident")},
	{Name: "severity", Keys: []string{"Severity", "severity", "Priority", "priority"}, Default: literal("low")},
	{Name: "status", Keys: []string{"Status", "status", "State", "state"}, Default: literal("open")},
	{Name: "occurred_at", Keys: []string{"OccurredAt", "occurred_at", "Timestamp", "timestamp", "Date", "date", "CreatedAt"}},
	{Name: "assigned_to", Keys: []string{"AssignedTo", "assigned_to", "Assignee", "Owner"}},
}

var wipeMapping = Mapping{
	{Name: "device", Keys: []string{"Device", "device", "DeviceName", "Hostname"}, Default: literal("Unknown")},
	{Name: "serial_number", Keys: []string{"SerialNumber", "serial_number", "Serial", "serial"}, Default: placeholderSerial},
	{Name: "status", Keys: []string{"Status", "status", "WipeStatus", "wipe_status"}, Default: literal("pending")},
	{Name: "requested_by", Keys: []string{"RequestedBy", "requested_by", "Requestor", "Admin"}},
	{Name: "week", Keys: []string{"Week", "week", "WeekLabel", "week_label"}},
	{Name: "completed_at", Keys: []string{"CompletedAt", "completed_at", "Completed", "Date", "date"}},
}

// NormalizeDevice projects one raw MDM row into its canonical shape.
// Risk level is derived, never read from the row.
func NormalizeDevice(raw domain.RawRecord, index int) domain.DeviceRecord {
	f := deviceMapping.Apply(raw, index)
	return domain.DeviceRecord{
		Username:     f["username"],
		Email:        f["email"],
		Platform:     f["platform"],
		OSVersion:    f["os_version"],
		SerialNumber: f["serial_number"],
		Enrollment:   f["enrollment"],
		Compliance:   f["compliance"],
		LastSeen:     f["last_seen"],
		Encrypted:    parseBool(f["encrypted"]),
		Violation:    f["violation"],
		RiskLevel:    ClassifyRisk(f["violation"], f["compliance"]),
	}
}

func NormalizeViolation(raw domain.RawRecord, index int) domain.ViolationRecord {
	f := violationMapping.Apply(raw, index)
	return domain.ViolationRecord{
		Username:     f["username"],
		Device:       f["device"],
		SerialNumber: f["serial_number"],
		Category:     strings.ToLower(f["category"]),
		Severity:     strings.ToLower(f["severity"]),
		DetectedAt:   f["detected_at"],
		Resolved:     parseBool(f["resolved"]),
	}
}

func NormalizeIncident(raw domain.RawRecord, index int) domain.IncidentRecord {
	f := incidentMapping.Apply(raw, index)
	return domain.IncidentRecord{
		ID:         f["id"],
		Source:     strings.ToLower(f["source"]),
		Title:      f["title"],
		Severity:   strings.ToLower(f["severity"]),
		Status:     strings.ToLower(f["status"]),
		OccurredAt: f["occurred_at"],
		AssignedTo: f["assigned_to"],
	}
}

func NormalizeWipe(raw domain.RawRecord, index int) domain.WipeEvent {
	f := wipeMapping.Apply(raw, index)
	return domain.WipeEvent{
		Device:       f["device"],
		SerialNumber: f["serial_number"],
		Status:       strings.ToLower(f["status"]),
		RequestedBy:  f["requested_by"],
		Week:         f["week"],
		CompletedAt:  f["completed_at"],
	}
}

// Batch helpers. Row index feeds the generated placeholders.

func NormalizeDevices(raws []domain.RawRecord) []domain.DeviceRecord {
	out := make([]domain.DeviceRecord, len(raws))
	for i, r := range raws {
		out[i] = NormalizeDevice(r, i)
	}
	return out
}

func NormalizeViolations(raws []domain.RawRecord) []domain.ViolationRecord {
	out := make([]domain.ViolationRecord, len(raws))
	for i, r := range raws {
		out[i] = NormalizeViolation(r, i)
	}
	return out
}

func NormalizeIncidents(raws []domain.RawRecord) []domain.IncidentRecord {
	out := make([]domain.IncidentRecord, len(raws))
	for i, r := range raws {
		out[i] = NormalizeIncident(r, i)
	}
	return out
}

func NormalizeWipes(raws []domain.RawRecord) []domain.WipeEvent {
	out := make([]domain.WipeEvent, len(raws))
	for i, r := range raws {
		out[i] = NormalizeWipe(r, i)
	}
	return out
}
