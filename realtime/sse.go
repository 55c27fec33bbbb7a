package realtime

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"civicsync/models"
)

// HTTPDoer is the subset of *http.Client used by SSEProvider.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SSEProvider subscribes to the authority's server-sent event stream.
// Events whose name differs from the requested topic are ignored.
type SSEProvider struct {
	url    string
	token  string
	http   HTTPDoer
	logger *slog.Logger
}

// NewSSEProvider streams from url. token, when set, is sent as a bearer
// credential.
func NewSSEProvider(url, token string, httpClient HTTPDoer, logger *slog.Logger) *SSEProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEProvider{url: url, token: token, http: httpClient, logger: logger}
}

func (p *SSEProvider) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, p.url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		cancel()
		return nil, &models.NetworkError{Op: "open event stream", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, &models.NetworkError{
			Op:  "open event stream",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	sub := &sseSubscription{
		body:   resp.Body,
		ctx:    streamCtx,
		cancel: cancel,
		events: make(chan StatusEvent),
		logger: p.logger.With("topic", topic),
	}
	go sub.read(topic)
	return sub, nil
}

type sseSubscription struct {
	body   io.ReadCloser
	ctx    context.Context
	cancel context.CancelFunc
	events chan StatusEvent
	once   sync.Once
	logger *slog.Logger
}

func (s *sseSubscription) Events() <-chan StatusEvent { return s.events }

func (s *sseSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.body.Close()
	})
	return err
}

func (s *sseSubscription) read(topic string) {
	defer close(s.events)
	defer s.cancel()
	defer s.body.Close()

	scanner := bufio.NewScanner(s.body)
	var name string
	var data []string

	dispatch := func() bool {
		defer func() { name, data = "", nil }()
		if len(data) == 0 || name != topic {
			return true
		}
		ev, err := DecodeStatusEvent([]byte(strings.Join(data, "\n")))
		if err != nil {
			s.logger.Warn("malformed push payload", "error", err)
			return true
		}
		select {
		case s.events <- ev:
			return true
		case <-s.ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if !dispatch() {
				return
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("event stream ended", "error", err)
	}
}
