package capture

import (
	"context"
)

// SeriesSpec describes one recurring recording series as the provider
// should hold it.
type SeriesSpec struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ResourceID       string   `json:"resourceId"`
	RecordingType    string   `json:"recordingType"`
	PublishType      string   `json:"publishType"`
	PublishTargetIDs []string `json:"publishTargetIds,omitempty"`
	CollaboratorUIDs []string `json:"collaboratorUids,omitempty"`
	Days             string   `json:"days"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	ExcludeDates     []string `json:"excludeDates,omitempty"`
}

// Provider is the external recording scheduler. Recurrence fields cannot be
// edited on a live series; changing them means deleting the series and
// creating a replacement. All operations tolerate repeats: deleting a
// missing series succeeds, and updates against a missing series report
// services.ErrNotFound so the caller can fall back to create.
type Provider interface {
	CreateSeries(ctx context.Context, spec SeriesSpec) (string, error)
	DeleteSeries(ctx context.Context, seriesID string) error
	UpdateCollaborators(ctx context.Context, seriesID string, add, remove []string) error
	UpdatePublishing(ctx context.Context, seriesID, publishType string, targetIDs []string) error
	UpdateRecordingType(ctx context.Context, seriesID, recordingType string) error
	UpdateMetadata(ctx context.Context, seriesID, title, description string) error
}
