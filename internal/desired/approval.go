package desired

import (
	"fmt"

	"lectern/internal/sis"
)

// ApprovalPolicy decides whether the recorded approvals are sufficient to
// create a section's first series. The evidence in the source system shows
// both single-instructor and admin-only paths, so the threshold is
// configurable rather than hard-coded.
type ApprovalPolicy func(section sis.Section, approvals []sis.Approval) bool

// AnyApproval schedules once any instructor of record or an admin has
// approved.
func AnyApproval(section sis.Section, approvals []sis.Approval) bool {
	for _, approval := range approvals {
		if approval.IsAdmin {
			return true
		}
		for _, instructor := range section.AuthorizedInstructors() {
			if instructor.UID == approval.ApprovedBy {
				return true
			}
		}
	}
	return false
}

// AdminOnly schedules only on an admin decision.
func AdminOnly(_ sis.Section, approvals []sis.Approval) bool {
	for _, approval := range approvals {
		if approval.IsAdmin {
			return true
		}
	}
	return false
}

// PolicyByName resolves the configured policy name.
func PolicyByName(name string) (ApprovalPolicy, error) {
	switch name {
	case "", "any":
		return AnyApproval, nil
	case "admin":
		return AdminOnly, nil
	default:
		return nil, fmt.Errorf("unknown approval policy %q", name)
	}
}
