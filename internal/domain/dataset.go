package domain

import "time"

// SourceTool identifies which security product produced an export.
type SourceTool string

const (
	ToolMDM       SourceTool = "mdm"
	ToolSIEM      SourceTool = "siem"
	ToolEDR       SourceTool = "edr"
	ToolGSuite    SourceTool = "gsuite"
	ToolMeraki    SourceTool = "meraki"
	ToolSonicWall SourceTool = "sonicwall"
)

// KnownTool reports whether t is one of the supported exports.
func KnownTool(t SourceTool) bool {
	switch t {
	case ToolMDM, ToolSIEM, ToolEDR, ToolGSuite, ToolMeraki, ToolSonicWall:
		return true
	}
	return false
}

// RecordKind is the domain a dataset's rows normalize into.
type RecordKind string

const (
	KindDevice    RecordKind = "device"
	KindViolation RecordKind = "violation"
	KindIncident  RecordKind = "incident"
	KindWipe      RecordKind = "wipe"
)

// Dataset is the metadata of one uploaded export. Rows are stored
// separately as RawRecords and normalized on read.
type Dataset struct {
	ID          string     `json:"id"`
	Tool        SourceTool `json:"tool"`
	Kind        RecordKind `json:"kind"`
	Filename    string     `json:"filename"`
	UploadedBy  string     `json:"uploaded_by"`
	RecordCount int        `json:"record_count"`
	CreatedAt   time.Time  `json:"created_at"`
}
