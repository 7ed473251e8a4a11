package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/adapters/file"
	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() config.Config {
	cfg := config.Default()
	cfg.Angles = []int{0, 120}
	cfg.RepetitionsPerAngle = 1
	cfg.PracticeTrials = 2
	cfg.FixationMs = 5
	cfg.MaxResponseMs = 20
	cfg.InterTrialMs = 5
	return cfg
}

// keepPressingBegin feeds begin until ctx is done. Begins during trials are
// rejected by the sequencer, so the session only waits at the bridge.
func keepPressingBegin(ctx context.Context) *io.PipeReader {
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := pw.Write([]byte("begin\n")); err != nil {
					return
				}
			}
		}
	}()
	return pr
}

func TestRunSession_TextMode(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	in := keepPressingBegin(ctx)
	defer in.Close()

	var out bytes.Buffer
	opts := RunOptions{
		Config:        fastConfig(),
		ParticipantID: "p-1",
		Mode:          ModeText,
		Output:        filepath.Join(dir, "out.csv"),
		Backends:      BackendOptions{ResultsLog: filepath.Join(dir, "log.jsonl")},
	}
	require.NoError(t, RunSession(ctx, opts, Streams{In: in, Out: &out, Err: io.Discard}))

	assert.Contains(t, out.String(), "Type begin to start 2 practice trials.")
	assert.Contains(t, out.String(), "Task complete. Accuracy: —% | Mean RT: — ms")
	assert.Contains(t, out.String(), "6 trial records written to")

	data, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 7)

	log, err := os.ReadFile(opts.Backends.ResultsLog)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(log)), "\n"), 7)
}

func TestRunSession_Abort(t *testing.T) {
	var out bytes.Buffer
	opts := RunOptions{Config: fastConfig(), ParticipantID: "p-1", Mode: ModeText, Output: "-"}
	err := RunSession(context.Background(), opts, Streams{In: strings.NewReader("begin\nquit\n"), Out: &out, Err: io.Discard})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Aborted during")
}

func TestRunSession_Resume(t *testing.T) {
	dir := t.TempDir()
	opts := RunOptions{
		Config:    fastConfig(),
		SessionID: "lab-1",
		Mode:      ModeText,
		Output:    "-",
		Backends:  BackendOptions{Store: StoreFile, StoreDir: dir},
	}
	streams := func(in string) Streams {
		return Streams{In: strings.NewReader(in), Out: io.Discard, Err: io.Discard}
	}

	// Quit mid-trial leaves a session that cannot be resumed.
	require.NoError(t, RunSession(context.Background(), opts, streams("begin\nquit\n")))
	err := RunSession(context.Background(), opts, streams("quit\n"))
	assert.ErrorIs(t, err, ErrNotResumable)

	// Fresh discards it.
	opts.Fresh = true
	require.NoError(t, RunSession(context.Background(), opts, streams("quit\n")))

	state, err := file.New(dir).Load(context.Background(), "lab-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, state.Phase)

	// An idle session resumes.
	opts.Fresh = false
	var out bytes.Buffer
	require.NoError(t, RunSession(context.Background(), opts, Streams{In: strings.NewReader("quit\n"), Out: &out, Err: io.Discard}))
	assert.Contains(t, out.String(), "Resuming session 'lab-1' at idle.")
}

func TestRunSession_CompletedSessionReexports(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	in := keepPressingBegin(ctx)
	defer in.Close()

	opts := RunOptions{
		Config:    fastConfig(),
		SessionID: "lab-2",
		Mode:      ModeText,
		Output:    "-",
		Backends:  BackendOptions{Store: StoreSQLite, SQLiteDSN: filepath.Join(dir, "mrt.db")},
	}
	require.NoError(t, RunSession(ctx, opts, Streams{In: in, Out: io.Discard, Err: io.Discard}))

	opts.Output = filepath.Join(dir, "again.csv")
	var out bytes.Buffer
	require.NoError(t, RunSession(context.Background(), opts, Streams{In: strings.NewReader(""), Out: &out, Err: io.Discard}))
	assert.Contains(t, out.String(), "already complete")
	_, err := os.Stat(opts.Output)
	assert.NoError(t, err)
}

func TestRunOptions_Validate(t *testing.T) {
	base := RunOptions{Config: config.Default(), Mode: ModeText}
	require.NoError(t, base.Validate())

	bad := base
	bad.Mode = "gui"
	assert.Error(t, bad.Validate())

	bad = base
	bad.SessionID = "s1"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Backends.Store = StoreRedis
	assert.Error(t, bad.Validate())

	bad = base
	bad.Config.Angles = nil
	assert.ErrorIs(t, bad.Validate(), config.ErrEmptyAngleSet)
}
