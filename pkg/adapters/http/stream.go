package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/mrt/pkg/domain"
)

// subscribeEvents streams session diffs as server-sent events.
//
// Query parameters:
//   - session_id: restrict to one session (default all)
//   - watch: comma separated fields to keep (phase, block, index, records, summary)
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	watch := parseWatch(r.URL.Query().Get("watch"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.agg.Watch(r.Context(), sessionID)
	last := make(map[string]*domain.SessionState)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if sessionID != "" {
		// Baseline so the first diff is relative to what the client already knows.
		if st, err := s.sessions.Load(r.Context(), sessionID); err == nil {
			last[sessionID] = st
			s.writeDiff(w, domain.Diff(nil, st), watch)
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			diff := domain.Diff(last[snap.SessionID], snap)
			last[snap.SessionID] = snap
			if diff == nil {
				continue
			}
			if s.writeDiff(w, diff, watch) {
				flusher.Flush()
			}
		}
	}
}

func parseWatch(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out[f] = true
		}
	}
	return out
}

// filterDiff drops unwatched fields. A nil watch keeps everything.
func filterDiff(d *domain.SessionDiff, watch map[string]bool) *domain.SessionDiff {
	if watch == nil {
		return d
	}
	out := &domain.SessionDiff{SessionID: d.SessionID}
	if watch["phase"] {
		out.Phase = d.Phase
	}
	if watch["block"] {
		out.Block = d.Block
	}
	if watch["index"] {
		out.Index = d.Index
	}
	if watch["records"] {
		out.Records = d.Records
	}
	if watch["summary"] {
		out.Summary = d.Summary
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}

func (s *Server) writeDiff(w http.ResponseWriter, d *domain.SessionDiff, watch map[string]bool) bool {
	if d == nil {
		return false
	}
	d = filterDiff(d, watch)
	if d == nil {
		return false
	}
	data, err := json.Marshal(d)
	if err != nil {
		s.logger.Error("diff encode failed", "err", err)
		return false
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	return true
}
