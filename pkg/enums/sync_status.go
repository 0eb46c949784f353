package enums

// SyncStatus is the phase reported by a photo sync run.
type SyncStatus string

const (
	SyncStatusInitializing SyncStatus = "initializing"
	SyncStatusListing      SyncStatus = "listing"
	SyncStatusProcessing   SyncStatus = "processing"
	SyncStatusCompleted    SyncStatus = "completed"
)

// String returns the literal string for the status.
func (s SyncStatus) String() string {
	return string(s)
}
