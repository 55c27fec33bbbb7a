package lifecycle

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"civicsync/models"
)

var (
	admin   = models.Session{UserID: "a1", Role: models.RoleAdmin}
	citizen = models.Session{UserID: "c1", Role: models.RoleCitizen}
)

func newIssue(t *testing.T) models.Issue {
	t.Helper()
	issue, err := models.NewIssue("i1", models.IssueInput{
		Title:       "Broken light",
		Description: "Street light out",
		Category:    models.Light,
		Lat:         12.97,
		Lng:         77.59,
	}, time.Now())
	if err != nil {
		t.Fatalf("new issue: %v", err)
	}
	return issue
}

func TestTransition_AdminIsIdempotent(t *testing.T) {
	issue := newIssue(t)

	first, changed, err := Transition(admin, issue, models.Resolved)
	if err != nil || !changed {
		t.Fatalf("first transition: changed=%v err=%v", changed, err)
	}
	if first.Status != models.Resolved {
		t.Fatalf("expected Resolved, got %q", first.Status)
	}

	second, changed, err := Transition(admin, first, models.Resolved)
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if changed {
		t.Error("expected second transition to be a no-op")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical snapshot, got %+v vs %+v", first, second)
	}
	if issue.Status != models.Reported {
		t.Errorf("input snapshot mutated to %q", issue.Status)
	}
}

func TestTransition_AnyTargetAllowed(t *testing.T) {
	issue := newIssue(t).WithStatus(models.Resolved)

	next, changed, err := Transition(admin, issue, models.Reported)
	if err != nil || !changed || next.Status != models.Reported {
		t.Fatalf("expected reopen to succeed, got %q changed=%v err=%v", next.Status, changed, err)
	}
}

func TestTransition_NonAdminAlwaysUnauthorized(t *testing.T) {
	issue := newIssue(t)
	targets := append([]models.IssueStatus{"Closed", ""}, models.Statuses...)
	sessions := []models.Session{citizen, {}, {Role: models.RoleAdmin}}

	for _, session := range sessions {
		for _, target := range targets {
			_, changed, err := Transition(session, issue, target)
			if !errors.Is(err, models.ErrUnauthorized) {
				t.Errorf("session %+v target %q: expected ErrUnauthorized, got %v", session, target, err)
			}
			if changed {
				t.Errorf("session %+v target %q: unexpected change", session, target)
			}
		}
	}
}

func TestTransition_InvalidStatus(t *testing.T) {
	_, _, err := Transition(admin, newIssue(t), "Closed")
	if !errors.Is(err, models.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
