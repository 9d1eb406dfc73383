package desired

import (
	"lectern/internal/sis"
)

// RecordingType is the closed set of capture styles. Each value carries its
// room-capability constraints as data so selection and downgrade logic stays
// in one place.
type RecordingType string

const (
	// RecordingScreencast captures the presentation signal and room audio.
	RecordingScreencast RecordingType = "screencast"
	// RecordingVideo adds a presenter camera.
	RecordingVideo RecordingType = "video"
	// RecordingVideoOperator adds a camera operator; auditoriums only.
	RecordingVideoOperator RecordingType = "video_with_operator"
)

type recordingTypeSpec struct {
	needsVideo      bool
	needsAuditorium bool
	needsOperator   bool
}

var recordingTypeSpecs = map[RecordingType]recordingTypeSpec{
	RecordingScreencast:    {},
	RecordingVideo:         {needsVideo: true},
	RecordingVideoOperator: {needsVideo: true, needsAuditorium: true, needsOperator: true},
}

// Known reports whether the value is a member of the closed enum.
func (r RecordingType) Known() bool {
	_, ok := recordingTypeSpecs[r]
	return ok
}

// RequiresOperator reports whether the type needs a camera operator booked.
func (r RecordingType) RequiresOperator() bool {
	return recordingTypeSpecs[r].needsOperator
}

// AllowedIn reports whether the room's equipment supports this type.
func (r RecordingType) AllowedIn(room *sis.Room) bool {
	spec, ok := recordingTypeSpecs[r]
	if !ok || room == nil || !room.Capability.Recordable() {
		return false
	}
	if spec.needsVideo && room.Capability != sis.CapabilityScreencastVideo {
		return false
	}
	if spec.needsAuditorium && !room.IsAuditorium {
		return false
	}
	return true
}

// DowngradeFor maps a recording type to the best type the room supports.
// Moving an operator recording out of an auditorium lands on plain video;
// losing video capability lands on screencast. This is a pure function of
// room and prior setting, not a user action, so the reconciler records the
// change in the history ledger itself.
func (r RecordingType) DowngradeFor(room *sis.Room) RecordingType {
	if r.AllowedIn(room) {
		return r
	}
	if RecordingVideo.AllowedIn(room) {
		return RecordingVideo
	}
	return RecordingScreencast
}

// DefaultRecordingType picks the room-derived default used when no explicit
// preference exists.
func DefaultRecordingType(room *sis.Room) RecordingType {
	if room != nil && room.Capability == sis.CapabilityScreencastVideo {
		return RecordingVideo
	}
	return RecordingScreencast
}

// PublishType is the closed set of publication placements.
type PublishType string

const (
	// PublishAutomatic releases recordings without review.
	PublishAutomatic PublishType = "automatic"
	// PublishModerated holds recordings for instructor review first.
	PublishModerated PublishType = "moderated"
	// PublishMyMedia keeps recordings in the instructor's personal library.
	PublishMyMedia PublishType = "my_media"
	// PublishCourseSite pushes recordings to one or more LMS course sites.
	PublishCourseSite PublishType = "course_site"
)

var publishTypes = map[PublishType]struct{}{
	PublishAutomatic:  {},
	PublishModerated:  {},
	PublishMyMedia:    {},
	PublishCourseSite: {},
}

// Known reports whether the value is a member of the closed enum.
func (p PublishType) Known() bool {
	_, ok := publishTypes[p]
	return ok
}

// Targets normalizes publish-target selection for the type: personal-library
// publication never carries course-site targets.
func (p PublishType) Targets(selected []string) []string {
	if p != PublishCourseSite || len(selected) == 0 {
		return nil
	}
	out := make([]string, len(selected))
	copy(out, selected)
	return out
}

// DefaultPublishType is the placement used when no preference exists.
const DefaultPublishType = PublishMyMedia
