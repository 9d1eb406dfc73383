package capture

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lectern/internal/services"
)

// Fake is an in-memory Provider for tests. It records every mutation in
// order and can be told to fail specific operations.
type Fake struct {
	mu     sync.Mutex
	series map[string]SeriesSpec
	calls  []string

	FailCreate error
	FailDelete error
	FailUpdate error
}

// NewFake returns an empty in-memory provider.
func NewFake() *Fake {
	return &Fake{series: make(map[string]SeriesSpec)}
}

func (f *Fake) CreateSeries(ctx context.Context, spec SeriesSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	if f.FailCreate != nil {
		return "", f.FailCreate
	}
	id := uuid.NewString()
	f.series[id] = spec
	return id, nil
}

func (f *Fake) DeleteSeries(ctx context.Context, seriesID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete "+seriesID)
	if f.FailDelete != nil {
		return f.FailDelete
	}
	delete(f.series, seriesID)
	return nil
}

func (f *Fake) UpdateCollaborators(ctx context.Context, seriesID string, add, remove []string) error {
	return f.update("collaborators", seriesID, func(spec *SeriesSpec) {
		merged := make(map[string]struct{}, len(spec.CollaboratorUIDs)+len(add))
		for _, uid := range spec.CollaboratorUIDs {
			merged[uid] = struct{}{}
		}
		for _, uid := range add {
			merged[uid] = struct{}{}
		}
		for _, uid := range remove {
			delete(merged, uid)
		}
		uids := make([]string, 0, len(merged))
		for uid := range merged {
			uids = append(uids, uid)
		}
		sort.Strings(uids)
		spec.CollaboratorUIDs = uids
	})
}

func (f *Fake) UpdatePublishing(ctx context.Context, seriesID, publishType string, targetIDs []string) error {
	return f.update("publishing", seriesID, func(spec *SeriesSpec) {
		spec.PublishType = publishType
		spec.PublishTargetIDs = append([]string(nil), targetIDs...)
	})
}

func (f *Fake) UpdateRecordingType(ctx context.Context, seriesID, recordingType string) error {
	return f.update("recording-type", seriesID, func(spec *SeriesSpec) {
		spec.RecordingType = recordingType
	})
}

func (f *Fake) UpdateMetadata(ctx context.Context, seriesID, title, description string) error {
	return f.update("metadata", seriesID, func(spec *SeriesSpec) {
		spec.Title = title
		spec.Description = description
	})
}

func (f *Fake) update(op, seriesID string, apply func(*SeriesSpec)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+seriesID)
	if f.FailUpdate != nil {
		return f.FailUpdate
	}
	spec, ok := f.series[seriesID]
	if !ok {
		return services.Wrap(services.ErrNotFound, "capture", op, "series "+seriesID, nil)
	}
	apply(&spec)
	f.series[seriesID] = spec
	return nil
}

// Series returns the provider's copy of a series.
func (f *Fake) Series(seriesID string) (SeriesSpec, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	spec, ok := f.series[seriesID]
	return spec, ok
}

// SeriesCount reports how many series currently exist.
func (f *Fake) SeriesCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.series)
}

// Calls returns the mutation log in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
