package ingest

import (
	"context"

	"github.com/victorsanmartin/ferromart-backend/pkg/enums"
)

// Stats accumulates the externally visible accounting of a sync run.
type Stats struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	NoSKU     int `json:"no_sku"`
}

// Progress is emitted once at start, once per file and once at completion.
type Progress struct {
	Status    enums.SyncStatus `json:"status"`
	Current   int              `json:"current"`
	Total     int              `json:"total"`
	Remaining int              `json:"remaining"`
	SKU       string           `json:"sku,omitempty"`
	Filename  string           `json:"filename,omitempty"`
	Message   string           `json:"message,omitempty"`
	Error     string           `json:"error,omitempty"`
	Stats     Stats            `json:"stats"`
}

// ProgressFunc receives progress events. The synchronizer calls it inline and
// waits for it to return, so a slow consumer slows ingestion instead of
// dropping events.
type ProgressFunc func(ctx context.Context, event Progress)
