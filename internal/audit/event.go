package audit

import "time"

// Actions recorded in the console audit trail.
const (
	ActionLogin         = "login"
	ActionUploadDataset = "upload_dataset"
	ActionDeleteDataset = "delete_dataset"
	ActionCreateUser    = "create_user"
	ActionUpdateUser    = "update_user"
	ActionDeleteUser    = "delete_user"
	ActionExportCSV     = "export_csv"
)

// Event is one administrative action taken through the console.
type Event struct {
	ID        string    `json:"id"`      // event UUID
	UserID    string    `json:"user_id"` // who did it
	Action    string    `json:"action"`
	Target    string    `json:"target"` // dataset id, user id, record kind
	Detail    string    `json:"detail"`
	Status    string    `json:"status"` // "success" or "denied"
	Timestamp time.Time `json:"timestamp"`
}
