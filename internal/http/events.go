package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

type eventsConfig struct {
	heartbeat time.Duration
	buffer    int
}

func defaultEventsConfig() eventsConfig {
	return eventsConfig{heartbeat: 25 * time.Second, buffer: 32}
}

type changeEvent struct {
	Kind     store.ChangeKind `json:"kind"`
	ID       string           `json:"id"`
	Revision uint64           `json:"revision"`
}

// handleEvents streams one server-sent event per store change until the client goes
// away or the server shuts down. A client that falls behind by more than the buffer
// gets a "resync" event and should refetch.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentEvents)

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.WarnContext(ctx, "Could not clear write deadline", applog.FieldError, err.Error())
	}

	changes := make(chan store.Change, s.events.buffer)
	overflow := make(chan struct{}, 1)
	unsubscribe := s.store.Subscribe(func(_ context.Context, c store.Change) {
		select {
		case changes <- c:
		default:
			select {
			case overflow <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(event, id string, payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to encode event", applog.FieldError, err.Error())
			return false
		}
		if id != "" {
			if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
				return false
			}
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	revision := s.store.Revision()
	if !send("ready", strconv.FormatUint(revision, 10), map[string]uint64{"revision": revision}) {
		return
	}
	logger.DebugContext(ctx, "Event stream opened", applog.FieldRevision, revision)

	heartbeat := time.NewTicker(s.events.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shuttingDown:
			return
		case c := <-changes:
			ev := changeEvent{Kind: c.Kind, ID: c.Expense.ID, Revision: c.Revision}
			if !send(string(c.Kind), strconv.FormatUint(c.Revision, 10), ev) {
				return
			}
		case <-overflow:
			// drain what is queued; the client refetches anyway
			for len(changes) > 0 {
				<-changes
			}
			rev := s.store.Revision()
			if !send("resync", strconv.FormatUint(rev, 10), map[string]uint64{"revision": rev}) {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil || rc.Flush() != nil {
				return
			}
		}
	}
}
