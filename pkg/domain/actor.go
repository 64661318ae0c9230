package domain

// Role names the capability an actor exercises against an assessment.
// The identity collaborator decides who holds which role; the core only
// checks that the role fits the requested operation.
type Role string

const (
	// RoleSubmitter is the party completing its own assessment.
	RoleSubmitter Role = "submitter"

	// RoleAssessor is the first review tier.
	RoleAssessor Role = "assessor"

	// RoleValidator is the second (final) review tier. Calibration requests
	// originate here.
	RoleValidator Role = "validator"
)

// ReviewTier returns the review tier a role occupies, or 0 for
// non-reviewing roles.
func (r Role) ReviewTier() int {
	switch r {
	case RoleAssessor:
		return 1
	case RoleValidator:
		return 2
	default:
		return 0
	}
}

// IsReviewer reports whether the role sits on a review tier.
func (r Role) IsReviewer() bool { return r.ReviewTier() > 0 }

// Actor is the identity-supplied caller of a core operation.
type Actor struct {
	// Subject is an opaque identifier from the identity collaborator.
	Subject string

	// Role is the capability the actor exercises.
	Role Role

	// Party scopes a submitter to its own assessment. Zero for reviewers.
	Party PartyID
}
