package api

import (
	"time"

	"github.com/starford/folio/internal/media"
	"github.com/starford/folio/internal/site"
)

// UnlockRequest is the body of POST /api/gate/{kind}.
type UnlockRequest struct {
	Password string `json:"password" example:"hunter2" validate:"required"`
}

// ProjectListResponse wraps the project list.
type ProjectListResponse struct {
	Projects []site.ProjectRow `json:"projects" validate:"required"`
}

// VaultResponse wraps the vault tiles.
type VaultResponse struct {
	Items []site.VaultTile `json:"items" validate:"required"`
}

// ProgressEvent is the payload of a media "progress" event.
type ProgressEvent struct {
	Percent int `json:"percent" example:"67"`
}

// DoneEvent is the payload of a media "done" event.
type DoneEvent struct {
	Items []media.Item `json:"items"`
}

// RunResponse is one sync run in the admin history.
type RunResponse struct {
	ID         int64             `json:"id"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	DurationMS int64             `json:"durationMs"`
	Counts     map[string]int    `json:"counts"`
	Failures   map[string]string `json:"failures"`
	Checksum   string            `json:"checksum"`
}
