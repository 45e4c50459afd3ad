package proto

import (
	"time"

	"github.com/google/uuid"
)

// EntryType categorizes a waitlist entry.
type EntryType string

const (
	EntryProspect EntryType = "prospect" // applicant who has not signed a lease
	EntrySigned   EntryType = "signed"
)

// WaitlistEntry is the subset of a waitlist row used by the cleanup job.
// Dates are ISO 8601 calendar dates as stored ("2024-03-01").
type WaitlistEntry struct {
	ID                uuid.UUID `json:"id"`
	FullName          string    `json:"full_name"`
	EntryType         EntryType `json:"entry_type"`
	MoveInDate        string    `json:"move_in_date"`
	MoveInDateEnd     *string   `json:"move_in_date_end"` // end of a move-in window, optional
	ExtendedRetention bool      `json:"extended_retention"`
}

// CleanupRun is the audit record of one expiry pass.
type CleanupRun struct {
	RanAt          time.Time
	Deleted        int
	StandardCutoff string
	ExtendedCutoff string
	Error          string
}
