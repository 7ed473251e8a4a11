package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/mrt/pkg/adapters/memory"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedSession(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	s := domain.NewSessionState("s-1", domain.Identity{ParticipantID: "P7"}, 42)
	rt := int64(640)
	s.Records = append(s.Records, domain.TrialRecord{
		Trial:          domain.NewTrialSpec(domain.ConditionSame, 60, 60, false),
		Block:          domain.BlockMain,
		SequenceIndex:  0,
		Response:       domain.ResponseSame,
		Correct:        true,
		ReactionTimeMs: &rt,
	})
	require.NoError(t, store.Save(context.Background(), s.SessionID, s))
	return store
}

func TestListSessions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListSessions(context.Background(), memory.NewStore(), &buf))
	assert.Equal(t, "No stored sessions.\n", buf.String())

	buf.Reset()
	require.NoError(t, ListSessions(context.Background(), storedSession(t), &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "s-1")
	assert.Contains(t, lines[1], "P7")
}

func TestExportSession(t *testing.T) {
	store := storedSession(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	got, err := ExportSession(context.Background(), store, "s-1", path, "")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)

	_, err = ExportSession(context.Background(), store, "missing", path, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
