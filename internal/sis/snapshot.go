package sis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Snapshot is one read of the source-of-truth feed for a term: the sections,
// the people attached to them, and the administrative state (opt-outs,
// approvals, preferences) that shapes the desired schedule.
type Snapshot struct {
	Term        Term         `json:"term"`
	Sections    []Section    `json:"sections"`
	OptOuts     []OptOut     `json:"optOuts"`
	Approvals   []Approval   `json:"approvals"`
	Preferences []Preference `json:"preferences"`
}

// LoadSnapshot reads and decodes a feed file.
func LoadSnapshot(path string) (*Snapshot, error) {
	if path == "" {
		return nil, errors.New("feed path is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if err := snapshot.validate(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Snapshot) validate() error {
	if s.Term.ID == "" {
		return errors.New("feed is missing term id")
	}
	if s.Term.RecordingStart.IsZero() || s.Term.RecordingEnd.IsZero() {
		return fmt.Errorf("term %s is missing its recording window", s.Term.ID)
	}
	return nil
}

// SectionByID finds a section in the snapshot.
func (s *Snapshot) SectionByID(sectionID string) (*Section, bool) {
	for i := range s.Sections {
		if s.Sections[i].SectionID == sectionID {
			return &s.Sections[i], true
		}
	}
	return nil, false
}

// PreferenceFor returns the stored preference for a section, if any.
func (s *Snapshot) PreferenceFor(sectionID string) (Preference, bool) {
	for _, pref := range s.Preferences {
		if pref.SectionID == sectionID {
			return pref, true
		}
	}
	return Preference{}, false
}

// ApprovalsFor returns the approvals recorded for a section.
func (s *Snapshot) ApprovalsFor(sectionID string) []Approval {
	out := make([]Approval, 0, 2)
	for _, approval := range s.Approvals {
		if approval.SectionID == sectionID {
			out = append(out, approval)
		}
	}
	return out
}

// OptedOut reports whether an instructor has opted the given section out,
// through a section-level, term-level, or blanket opt-out.
func (s *Snapshot) OptedOut(instructorUID, sectionID string) bool {
	for _, optOut := range s.OptOuts {
		if optOut.InstructorUID != instructorUID {
			continue
		}
		if optOut.SectionID != "" {
			if optOut.SectionID == sectionID {
				return true
			}
			continue
		}
		if optOut.TermID == "" || optOut.TermID == s.Term.ID {
			return true
		}
	}
	return false
}

// FullyOptedOut reports whether every authorized instructor of the section
// has opted out. A section with no instructors is not considered opted out;
// it simply cannot meet the approval threshold.
func (s *Snapshot) FullyOptedOut(section Section) bool {
	instructors := section.AuthorizedInstructors()
	if len(instructors) == 0 {
		return false
	}
	for _, instructor := range instructors {
		if !s.OptedOut(instructor.UID, section.SectionID) {
			return false
		}
	}
	return true
}

// ResolvePrimary returns the section whose title and description own the
// shared series for a cross-listing group. Sections without cross-listings
// resolve to themselves, as do groups whose primary is missing from the
// snapshot.
func (s *Snapshot) ResolvePrimary(section Section) Section {
	if section.CrossListing == nil || section.CrossListing.PrimarySectionID == "" {
		return section
	}
	if primary, ok := s.SectionByID(section.CrossListing.PrimarySectionID); ok {
		return *primary
	}
	return section
}
