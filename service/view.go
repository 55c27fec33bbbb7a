package service

import (
	"context"
	"iter"
	"log/slog"
	"sync"

	"civicsync/models"
	"civicsync/realtime"
)

// View is one presentation of the issue list. It owns its realtime
// channel: the subscription lives exactly as long as the view is active.
//
// Every activation has its own generation. A fetch or write started under
// one generation is discarded with ErrViewInactive if the view has been
// deactivated by the time the response arrives.
type View struct {
	svc     *IssueService
	channel *realtime.Channel
	logger  *slog.Logger

	// switching is held while the channel is opened or closed, so the
	// subscription always matches the active flag once it is released.
	switching sync.Mutex

	mu         sync.Mutex
	active     bool
	generation uint64
}

// NewView creates an inactive view whose push updates come from provider.
func (s *IssueService) NewView(provider realtime.Provider) *View {
	return &View{
		svc:     s,
		channel: realtime.NewChannel(provider, s.store, s.logger),
		logger:  s.logger.With("component", "view"),
	}
}

// Activate subscribes to pushed status changes and then loads the full
// issue list. Subscribing first means no change published during the
// fetch is lost.
func (v *View) Activate(ctx context.Context) error {
	live, err := v.open(ctx)
	if err != nil || live == nil {
		return err
	}
	v.logger.Info("view activated")
	return v.svc.refresh(ctx, live)
}

// open flips the view to active and subscribes. A nil liveness with a nil
// error means the view was already active.
func (v *View) open(ctx context.Context) (liveness, error) {
	v.switching.Lock()
	defer v.switching.Unlock()

	v.mu.Lock()
	if v.active {
		v.mu.Unlock()
		return nil, nil
	}
	v.active = true
	v.generation++
	live := v.liveAt(v.generation)
	v.mu.Unlock()

	if err := v.channel.Open(ctx); err != nil {
		v.mu.Lock()
		v.active = false
		v.generation++
		v.mu.Unlock()
		return nil, err
	}
	return live, nil
}

// Deactivate unsubscribes. Responses still in flight are discarded.
func (v *View) Deactivate() error {
	v.switching.Lock()
	defer v.switching.Unlock()

	v.mu.Lock()
	if !v.active {
		v.mu.Unlock()
		return nil
	}
	v.active = false
	v.generation++
	v.mu.Unlock()

	err := v.channel.Close()
	v.logger.Info("view deactivated")
	return err
}

// Active reports whether the view is between Activate and Deactivate.
func (v *View) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// Disconnected is closed when the push stream of the current activation
// ends. Resync is the way back.
func (v *View) Disconnected() <-chan struct{} {
	return v.channel.Done()
}

// Resync reopens the push subscription and reloads the full list.
func (v *View) Resync(ctx context.Context) error {
	live, err := v.reopen(ctx)
	if err != nil {
		return err
	}
	return v.svc.refresh(ctx, live)
}

func (v *View) reopen(ctx context.Context) (liveness, error) {
	v.switching.Lock()
	defer v.switching.Unlock()

	live, err := v.guard()
	if err != nil {
		return nil, err
	}
	if err := v.channel.Close(); err != nil {
		v.logger.Warn("closing stale subscription", "error", err)
	}
	if err := v.channel.Open(ctx); err != nil {
		return nil, err
	}
	return live, nil
}

// Refresh reloads the full list for this view.
func (v *View) Refresh(ctx context.Context) error {
	live, err := v.guard()
	if err != nil {
		return err
	}
	return v.svc.refresh(ctx, live)
}

// Issues returns the issues shown under filter.
func (v *View) Issues(filter string) (iter.Seq[models.Issue], error) {
	return v.svc.GetFilteredIssues(filter)
}

func (v *View) Report(ctx context.Context, session models.Session, input models.IssueInput) (models.Issue, error) {
	live, err := v.guard()
	if err != nil {
		return models.Issue{}, err
	}
	return v.svc.report(ctx, session, input, live)
}

func (v *View) SubmitUpvote(ctx context.Context, session models.Session, issue models.Issue) (models.Issue, error) {
	live, err := v.guard()
	if err != nil {
		return models.Issue{}, err
	}
	return v.svc.submitUpvote(ctx, session, issue, live)
}

func (v *View) SubmitStatusChange(ctx context.Context, session models.Session, issue models.Issue, status models.IssueStatus) (models.Issue, error) {
	live, err := v.guard()
	if err != nil {
		return models.Issue{}, err
	}
	return v.svc.submitStatusChange(ctx, session, issue, status, live)
}

func (v *View) guard() (liveness, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.active {
		return nil, ErrViewInactive
	}
	return v.liveAt(v.generation), nil
}

func (v *View) liveAt(generation uint64) liveness {
	return func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.active && v.generation == generation
	}
}
