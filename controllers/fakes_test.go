package controllers

import (
	"context"
	"slices"
	"sync"

	"civicsync/models"
	"civicsync/realtime"
)

// fakeIssueRepo mirrors the MongoDB repository's semantics in memory.
type fakeIssueRepo struct {
	mu     sync.Mutex
	issues []models.Issue
}

func (f *fakeIssueRepo) List(_ context.Context, filter models.Filter) ([]models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Issue{}
	for _, issue := range slices.Backward(f.issues) {
		if filter.Matches(issue.Status) {
			out = append(out, issue.Clone())
		}
	}
	return out, nil
}

func (f *fakeIssueRepo) Create(_ context.Context, issue models.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues = append(f.issues, issue.Clone())
	return nil
}

func (f *fakeIssueRepo) AddUpvote(_ context.Context, id, userID string) (models.Issue, error) {
	return f.update(id, func(i models.Issue) (models.Issue, error) {
		if i.HasUpvote(userID) {
			return models.Issue{}, models.ErrAlreadyVoted
		}
		return i.WithUpvote(userID), nil
	})
}

func (f *fakeIssueRepo) SetStatus(_ context.Context, id string, status models.IssueStatus) (models.Issue, error) {
	return f.update(id, func(i models.Issue) (models.Issue, error) {
		return i.WithStatus(status), nil
	})
}

func (f *fakeIssueRepo) update(id string, fn func(models.Issue) (models.Issue, error)) (models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, issue := range f.issues {
		if issue.ID != id {
			continue
		}
		next, err := fn(issue)
		if err != nil {
			return models.Issue{}, err
		}
		f.issues[i] = next
		return next.Clone(), nil
	}
	return models.Issue{}, models.ErrNotFound
}

type fakePublisher struct {
	mu     sync.Mutex
	events []realtime.StatusEvent
}

func (p *fakePublisher) PublishStatus(_ context.Context, ev realtime.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) published() []realtime.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

type fakeSubscription struct {
	events chan realtime.StatusEvent
	once   sync.Once
}

func (s *fakeSubscription) Events() <-chan realtime.StatusEvent { return s.events }

func (s *fakeSubscription) Close() error {
	s.once.Do(func() { close(s.events) })
	return nil
}

// fakeEvents hands out subscriptions and reports each one on subscribed.
type fakeEvents struct {
	subscribed chan *fakeSubscription
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{subscribed: make(chan *fakeSubscription, 4)}
}

func (f *fakeEvents) Subscribe(context.Context, string) (realtime.Subscription, error) {
	sub := &fakeSubscription{events: make(chan realtime.StatusEvent, 4)}
	f.subscribed <- sub
	return sub, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]models.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Username]; ok {
		return models.ErrConflict
	}
	f.users[user.Username] = user
	return nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[username]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return user, nil
}
