// Package lifecycle decides who may move an issue between statuses.
//
// The authority accepts any of the three statuses as a target, so no
// ordering between them is enforced here; the checks are capability and
// membership in the status enumeration.
package lifecycle

import (
	"fmt"

	"civicsync/models"
)

// Authorize checks that session may request a transition to target.
// The capability check runs first, so a citizen is always refused with
// ErrUnauthorized whatever the target.
func Authorize(session models.Session, target models.IssueStatus) error {
	if !session.IsAdmin() {
		return models.ErrUnauthorized
	}
	if !target.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, target)
	}
	return nil
}

// Transition applies a status change to issue on behalf of session.
// When the issue is already in target the identical snapshot is returned
// with changed set to false.
func Transition(session models.Session, issue models.Issue, target models.IssueStatus) (next models.Issue, changed bool, err error) {
	if err := Authorize(session, target); err != nil {
		return issue, false, err
	}
	if issue.Status == target {
		return issue, false, nil
	}
	return issue.WithStatus(target), true, nil
}
