package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/runner"
)

// Watch follows the live diffs of a remotely hosted session (or all sessions
// when sessionID is empty) and prints one line per change until ctx is done.
func Watch(ctx context.Context, client *http.Client, baseURL, sessionID string, w io.Writer) error {
	if client == nil {
		client = http.DefaultClient
	}
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok || data == "connected" {
			continue
		}
		var diff domain.SessionDiff
		if err := json.Unmarshal([]byte(data), &diff); err != nil {
			return fmt.Errorf("bad event: %w", err)
		}
		for _, line := range FormatDiff(diff) {
			fmt.Fprintln(w, line)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// FormatDiff renders a diff as human-readable lines.
func FormatDiff(d domain.SessionDiff) []string {
	short := d.SessionID
	if len(short) > 8 {
		short = short[:8]
	}

	var lines []string
	var parts []string
	if d.Block != nil {
		parts = append(parts, "block="+string(*d.Block))
	}
	if d.Phase != nil {
		parts = append(parts, "phase="+string(*d.Phase))
	}
	if d.Index != nil {
		parts = append(parts, fmt.Sprintf("index=%d", *d.Index))
	}
	if len(parts) > 0 {
		lines = append(lines, fmt.Sprintf("[%s] %s", short, strings.Join(parts, " ")))
	}
	for _, r := range d.Records {
		rt := "—"
		if r.ReactionTimeMs != nil {
			rt = fmt.Sprintf("%dms", *r.ReactionTimeMs)
		}
		verdict := "wrong"
		if r.Correct {
			verdict = "correct"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s #%d %s@%d %s %s %s",
			short, r.Block, r.SequenceIndex, r.Trial.Condition, r.Trial.Angle, r.Response, verdict, rt))
	}
	if d.Summary != nil {
		lines = append(lines, fmt.Sprintf("[%s] done. %s", short, runner.FormatSummary(d.Summary)))
	}
	return lines
}
