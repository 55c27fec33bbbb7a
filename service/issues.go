// Package service is the surface the presentation layer talks to. It runs
// the local fast-path checks, calls the authority, and reconciles the
// confirmed result into the issue store.
//
// Nothing is applied to the store optimistically: a write changes local
// state only after the authority acknowledges it, so a rejected write
// never needs a rollback.
package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"civicsync/ledger"
	"civicsync/lifecycle"
	"civicsync/models"
	"civicsync/store"
)

//go:generate mockgen -source=issues.go -destination=mock_issues_test.go -package=service

// IssueAPI defines the authority operations consumed by IssueService.
type IssueAPI interface {
	FetchIssues(ctx context.Context) ([]models.Issue, error)
	CreateIssue(ctx context.Context, session models.Session, input models.IssueInput) (models.Issue, error)
	Upvote(ctx context.Context, session models.Session, id string) error
	SetStatus(ctx context.Context, session models.Session, id string, status models.IssueStatus) error
}

// ErrViewInactive is returned when a response arrives for a view that has
// since been deactivated. The response is discarded.
var ErrViewInactive = errors.New("view no longer active")

// IssueService coordinates the issue store with the authority.
type IssueService struct {
	api    IssueAPI
	store  *store.Store
	logger *slog.Logger
}

// NewIssueService creates a service with an empty store.
func NewIssueService(api IssueAPI, logger *slog.Logger) *IssueService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueService{
		api:    api,
		store:  store.New(logger),
		logger: logger,
	}
}

// Store exposes the underlying cache for read access and realtime wiring.
func (s *IssueService) Store() *store.Store { return s.store }

// liveness guards application of a response. It reports false once the
// requesting view is gone.
type liveness func() bool

func alwaysLive() bool { return true }

// Refresh replaces the store with a full fetch from the authority.
func (s *IssueService) Refresh(ctx context.Context) error {
	return s.refresh(ctx, alwaysLive)
}

func (s *IssueService) refresh(ctx context.Context, live liveness) error {
	issues, err := s.api.FetchIssues(ctx)
	if err != nil {
		return fmt.Errorf("fetch issues: %w", err)
	}
	for _, issue := range issues {
		if err := issue.Validate(); err != nil {
			return fmt.Errorf("fetch issues: issue %q: %w", issue.ID, err)
		}
	}
	if !live() {
		return ErrViewInactive
	}
	s.store.ReplaceAll(issues)
	s.logger.Info("issues refreshed", "count", len(issues))
	return nil
}

// GetFilteredIssues returns the issues in the given status, or all of them
// for "All".
func (s *IssueService) GetFilteredIssues(filter string) (iter.Seq[models.Issue], error) {
	f, err := models.ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.store.FilteredView(f), nil
}

// Report validates input locally, creates the issue at the authority and
// adds the stored record to the cache.
func (s *IssueService) Report(ctx context.Context, session models.Session, input models.IssueInput) (models.Issue, error) {
	return s.report(ctx, session, input, alwaysLive)
}

func (s *IssueService) report(ctx context.Context, session models.Session, input models.IssueInput, live liveness) (models.Issue, error) {
	if err := models.ValidateInput(input); err != nil {
		return models.Issue{}, err
	}
	if !session.Authenticated() {
		return models.Issue{}, models.ErrUnauthenticated
	}

	created, err := s.api.CreateIssue(ctx, session, input)
	if err != nil {
		return models.Issue{}, fmt.Errorf("create issue: %w", err)
	}
	if err := created.Validate(); err != nil {
		return models.Issue{}, fmt.Errorf("create issue: %w", err)
	}
	if !live() {
		return models.Issue{}, ErrViewInactive
	}
	s.store.Insert(created)
	s.logger.Info("issue reported", "id", created.ID, "category", created.Category)
	return created, nil
}

// SubmitUpvote records session's vote on issue. A repeated vote is refused
// locally without contacting the authority.
func (s *IssueService) SubmitUpvote(ctx context.Context, session models.Session, issue models.Issue) (models.Issue, error) {
	return s.submitUpvote(ctx, session, issue, alwaysLive)
}

func (s *IssueService) submitUpvote(ctx context.Context, session models.Session, issue models.Issue, live liveness) (models.Issue, error) {
	if current, ok := s.store.Get(issue.ID); ok {
		issue = current
	}
	voted, err := ledger.AddVote(issue, session.UserID)
	if err != nil {
		return models.Issue{}, err
	}

	if err := s.api.Upvote(ctx, session, issue.ID); err != nil {
		return models.Issue{}, fmt.Errorf("upvote %s: %w", issue.ID, err)
	}
	if !live() {
		return models.Issue{}, ErrViewInactive
	}

	// Pushes may have changed the issue while the call was in flight, so
	// the vote is applied to the record as stored now.
	stored, err := s.store.AddUpvote(issue.ID, session.UserID)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Debug("upvote confirmed for issue not loaded", "id", issue.ID)
		return voted, nil
	}
	if err != nil {
		return models.Issue{}, err
	}
	return stored, nil
}

// SubmitStatusChange moves issue to status on behalf of session. Only
// admins may do this. The stored record, when loaded, decides what the
// current status is; a change to it succeeds without a network call.
func (s *IssueService) SubmitStatusChange(ctx context.Context, session models.Session, issue models.Issue, status models.IssueStatus) (models.Issue, error) {
	return s.submitStatusChange(ctx, session, issue, status, alwaysLive)
}

func (s *IssueService) submitStatusChange(ctx context.Context, session models.Session, issue models.Issue, status models.IssueStatus, live liveness) (models.Issue, error) {
	if current, ok := s.store.Get(issue.ID); ok {
		issue = current
	}
	_, changed, err := lifecycle.Transition(session, issue, status)
	if err != nil {
		return models.Issue{}, err
	}
	if !changed {
		return issue.Clone(), nil
	}

	if err := s.api.SetStatus(ctx, session, issue.ID, status); err != nil {
		return models.Issue{}, fmt.Errorf("set status %s: %w", issue.ID, err)
	}
	if !live() {
		return models.Issue{}, ErrViewInactive
	}

	if _, err := s.store.PatchStatus(issue.ID, status); err != nil {
		return models.Issue{}, err
	}
	current, ok := s.store.Get(issue.ID)
	if !ok {
		s.logger.Info("status change confirmed for issue not loaded; awaiting reconciliation", "id", issue.ID)
		return models.Issue{}, fmt.Errorf("apply status %s: %w", issue.ID, models.ErrNotFound)
	}
	return current, nil
}

// OnRemoteUpdate registers h to be called after every store change.
func (s *IssueService) OnRemoteUpdate(h store.Handler) store.HandlerID {
	return s.store.OnUpdate(h)
}

// OffRemoteUpdate removes a handler registered with OnRemoteUpdate.
func (s *IssueService) OffRemoteUpdate(id store.HandlerID) {
	s.store.OffUpdate(id)
}
