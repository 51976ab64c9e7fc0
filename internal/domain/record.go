package domain

// RawRecord is one row of an uploaded tool export after JSON decoding.
// Key names are whatever the export used; no schema is enforced here.
type RawRecord map[string]any

// RiskLevel classifies a device by the worst problem observed on it.
type RiskLevel string

const (
	RiskCritical RiskLevel = "Critical"
	RiskHigh     RiskLevel = "High"
	RiskMedium   RiskLevel = "Medium"
	RiskLow      RiskLevel = "Low"
)

// DeviceRecord is the canonical projection of one MDM device row.
// Date-bearing fields stay as the original strings; parsing happens
// at filter/sort time so an unparseable value never poisons the record.
type DeviceRecord struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Platform     string    `json:"platform"`
	OSVersion    string    `json:"os_version"`
	SerialNumber string    `json:"serial_number"`
	Enrollment   string    `json:"enrollment"`
	Compliance   string    `json:"compliance"`
	LastSeen     string    `json:"last_seen"`
	Encrypted    bool      `json:"encrypted"`
	Violation    string    `json:"violation"` // worst violation category, "" if clean
	RiskLevel    RiskLevel `json:"risk_level"`
}

// ViolationRecord is one security-violation row (MDM or EDR export).
type ViolationRecord struct {
	Username     string `json:"username"`
	Device       string `json:"device"`
	SerialNumber string `json:"serial_number"`
	Category     string `json:"category"` // compromised, no_password, not_encrypted, ...
	Severity     string `json:"severity"`
	DetectedAt   string `json:"detected_at"`
	Resolved     bool   `json:"resolved"`
}

// IncidentRecord is one SIEM/EDR incident row for the timeline view.
type IncidentRecord struct {
	ID         string `json:"id"`
	Source     string `json:"source"` // which tool reported it
	Title      string `json:"title"`
	Severity   string `json:"severity"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurred_at"`
	AssignedTo string `json:"assigned_to"`
}

// WipeEvent is one remote-wipe row from an MDM export.
type WipeEvent struct {
	Device       string `json:"device"`
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
	RequestedBy  string `json:"requested_by"`
	Week         string `json:"week"` // optional "Week" column, often absent
	CompletedAt  string `json:"completed_at"`
}

// Field returns a named field as its display string. Used by the
// pipeline so filter/sort/export stay domain-agnostic.
func (d DeviceRecord) Field(name string) (string, bool) {
	switch name {
	case "username":
		return d.Username, true
	case "email":
		return d.Email, true
	case "platform":
		return d.Platform, true
	case "os_version":
		return d.OSVersion, true
	case "serial_number":
		return d.SerialNumber, true
	case "enrollment":
		return d.Enrollment, true
	case "compliance":
		return d.Compliance, true
	case "last_seen":
		return d.LastSeen, true
	case "violation":
		return d.Violation, true
	case "risk_level":
		return string(d.RiskLevel), true
	}
	return "", false
}

func (v ViolationRecord) Field(name string) (string, bool) {
	switch name {
	case "username":
		return v.Username, true
	case "device":
		return v.Device, true
	case "serial_number":
		return v.SerialNumber, true
	case "category":
		return v.Category, true
	case "severity":
		return v.Severity, true
	case "detected_at":
		return v.DetectedAt, true
	}
	return "", false
}

func (i IncidentRecord) Field(name string) (string, bool) {
	switch name {
	case "id":
		return i.ID, true
	case "source":
		return i.Source, true
	case "title":
		return i.Title, true
	case "severity":
		return i.Severity, true
	case "status":
		return i.Status, true
	case "occurred_at":
		return i.OccurredAt, true
	case "assigned_to":
		return i.AssignedTo, true
	}
	return "", false
}

func (w WipeEvent) Field(name string) (string, bool) {
	switch name {
	case "device":
		return w.Device, true
	case "serial_number":
		return w.SerialNumber, true
	case "status":
		return w.Status, true
	case "requested_by":
		return w.RequestedBy, true
	case "week":
		return w.Week, true
	case "completed_at":
		return w.CompletedAt, true
	}
	return "", false
}
