package models

import (
	"govseal/pkg/domain"
)

// Action names a workflow transition as exposed at the procedure boundary.
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionBeginReview        Action = "begin_review"
	ActionRequestRework      Action = "request_rework"
	ActionResubmit           Action = "resubmit"
	ActionApprove            Action = "approve"
	ActionRequestCalibration Action = "request_calibration"
	ActionSubmitCalibration  Action = "submit_calibration"
	ActionComplete           Action = "complete"
)

// AllowedActions lists the transitions a role could attempt against the
// assessment's current state. It mirrors the transition guards but skips
// payload-dependent checks (completeness, comment length), so a listed
// action can still fail with a guard violation.
func AllowedActions(a *Assessment, role domain.Role, finalTier int) []Action {
	var out []Action

	if role == domain.RoleSubmitter {
		switch a.Status {
		case StatusDraft:
			out = append(out, ActionSubmit)
		case StatusRework:
			out = append(out, ActionResubmit)
		case StatusCalibration:
			out = append(out, ActionSubmitCalibration)
		}
		return out
	}

	tier := role.ReviewTier()
	switch a.Status {
	case StatusSubmitted:
		if tier == a.CurrentTier {
			out = append(out, ActionBeginReview)
		}
	case StatusInReview:
		if tier != a.CurrentTier {
			return out
		}
		if a.ReworkCount < MaxReworkCount {
			out = append(out, ActionRequestRework)
		}
		if tier < finalTier {
			out = append(out, ActionApprove)
		}
		if tier == finalTier {
			out = append(out, ActionRequestCalibration, ActionComplete)
		}
	}
	return out
}
