package consent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"endflow/internal/models"
	"endflow/internal/visitor"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestManager(kv visitor.KV) *Manager {
	m := NewManager(kv)
	m.now = func() time.Time { return fixedNow }
	return m
}

func boolPtr(b bool) *bool { return &b }

func TestCurrentUndecided(t *testing.T) {
	m := newTestManager(visitor.NewMemory())

	prefs, decided, err := m.Current(context.Background(), "v1")
	require.NoError(t, err)
	assert.False(t, decided)
	assert.Equal(t, models.NecessaryOnly(), prefs)
}

func TestCurrentMalformedIsUndecided(t *testing.T) {
	kv := visitor.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "v1", PreferencesKey, "{not json"))

	m := newTestManager(kv)
	prefs, decided, err := m.Current(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, decided)
	assert.False(t, prefs.Marketing)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name   string
		decide func(m *Manager, ctx context.Context) (models.ConsentPreferences, error)
		want   models.ConsentPreferences
	}{
		{
			name:   "accept all",
			decide: func(m *Manager, ctx context.Context) (models.ConsentPreferences, error) { return m.AcceptAll(ctx, "v1") },
			want:   models.AllConsent(),
		},
		{
			name:   "necessary only",
			decide: func(m *Manager, ctx context.Context) (models.ConsentPreferences, error) { return m.AcceptNecessaryOnly(ctx, "v1") },
			want:   models.NecessaryOnly(),
		},
		{
			name: "custom choice cannot disable necessary",
			decide: func(m *Manager, ctx context.Context) (models.ConsentPreferences, error) {
				return m.SavePreferences(ctx, "v1", models.ConsentChoice{
					Necessary: boolPtr(false),
					Analytics: boolPtr(true),
					Marketing: boolPtr(false),
				})
			},
			want: models.ConsentPreferences{Necessary: true, Analytics: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newTestManager(visitor.NewMemory())

			got, err := tt.decide(m, ctx)
			require.NoError(t, err)

			tt.want.DecidedAt = fixedNow
			assert.Equal(t, tt.want, got)

			stored, decided, err := m.Current(ctx, "v1")
			require.NoError(t, err)
			assert.True(t, decided)
			assert.Equal(t, tt.want, stored)
			assert.True(t, stored.Necessary)
		})
	}
}

func TestPersistsUnderKnownKeys(t *testing.T) {
	kv := visitor.NewMemory()
	ctx := context.Background()
	m := newTestManager(kv)

	_, err := m.AcceptAll(ctx, "v1")
	require.NoError(t, err)

	raw, ok, _ := kv.Get(ctx, "v1", PreferencesKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"necessary":true,"analytics":true,"marketing":true,"personalization":true}`, raw)

	date, ok, _ := kv.Get(ctx, "v1", DateKey)
	require.True(t, ok)
	assert.Equal(t, "2026-03-14T09:26:53Z", date)
}

func TestRevisitOverridesDecision(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(visitor.NewMemory())

	_, err := m.AcceptAll(ctx, "v1")
	require.NoError(t, err)
	_, err = m.AcceptNecessaryOnly(ctx, "v1")
	require.NoError(t, err)

	prefs, _, err := m.Current(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, prefs.Marketing)
	assert.False(t, prefs.Analytics)
}

func TestSubscribersNotified(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(visitor.NewMemory())

	var calls []string
	m.Subscribe(func(_ context.Context, id string, p models.ConsentPreferences) {
		calls = append(calls, id)
		assert.True(t, p.Marketing)
	})
	m.Subscribe(func(_ context.Context, id string, _ models.ConsentPreferences) {
		calls = append(calls, "second:"+id)
	})

	_, err := m.AcceptAll(ctx, "v9")
	require.NoError(t, err)
	assert.Equal(t, []string{"v9", "second:v9"}, calls)
}

// failingKV fails every operation.
type failingKV struct{}

var errKV = errors.New("kv down")

func (failingKV) Get(context.Context, string, string) (string, bool, error) { return "", false, errKV }
func (failingKV) Set(context.Context, string, string, string) error         { return errKV }
func (failingKV) SetNX(context.Context, string, time.Duration) (bool, error) {
	return false, errKV
}

func TestStorageFailure(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(failingKV{})

	notified := false
	m.Subscribe(func(context.Context, string, models.ConsentPreferences) { notified = true })

	_, err := m.AcceptAll(ctx, "v1")
	require.ErrorIs(t, err, errKV)
	assert.False(t, notified, "listeners must not run when the decision was not saved")

	prefs, decided, err := m.Current(ctx, "v1")
	require.ErrorIs(t, err, errKV)
	assert.False(t, decided)
	assert.True(t, prefs.Necessary)
}
