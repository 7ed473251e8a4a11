package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/mrt/pkg/adapters/memory"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleState() *domain.SessionState {
	s := domain.NewSessionState("s-1", domain.Identity{ParticipantID: "P-007", SessionCode: "ABC"}, 2081)
	s.Main = []domain.TrialSpec{domain.NewTrialSpec(domain.ConditionMirror, 90, 90, true)}
	s.Block = domain.BlockMain
	s.Phase = domain.PhaseBridge
	rt := int64(700)
	s.Records = append(s.Records, domain.TrialRecord{Block: domain.BlockPractice, Response: domain.ResponseSame, ReactionTimeMs: &rt})
	return s
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	original := sampleState()
	require.NoError(t, secure.Save(ctx, original.SessionID, original))

	stored, err := underlying.Load(ctx, original.SessionID)
	require.NoError(t, err)
	assert.Empty(t, stored.Identity.ParticipantID, "identity must not be stored in clear")
	assert.Zero(t, stored.Seed)
	assert.Empty(t, stored.Records)
	assert.Empty(t, stored.Main)
	assert.Equal(t, domain.PhaseBridge, stored.Phase, "position stays visible")

	loaded, err := secure.Load(ctx, original.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "P-007", loaded.Identity.ParticipantID)
	assert.Equal(t, uint32(2081), loaded.Seed)
	assert.Equal(t, original.Main, loaded.Main)
	require.Len(t, loaded.Records, 1)
	assert.Equal(t, int64(700), *loaded.Records[0].ReactionTimeMs)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldMW, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, oldMW(underlying).Save(ctx, "s-1", sampleState()))

	newOnly, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = newOnly(underlying).Load(ctx, "s-1")
	assert.Error(t, err, "the old ciphertext needs the old key")

	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	loaded, err := rotated(underlying).Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "ABC", loaded.Identity.SessionCode)
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", sampleState()))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(underlying).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)

	_, err = mw(underlying).Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_InvalidKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("not-a-key")
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
