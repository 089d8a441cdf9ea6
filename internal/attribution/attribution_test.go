package attribution

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"endflow/internal/models"
	"endflow/internal/visitor"
)

func query(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestFromQuery(t *testing.T) {
	got := FromQuery(query(t, "utm_source=linkedin&utm_medium=+paid+&utm_campaign=q3&other=x"))
	assert.Equal(t, models.AttributionParams{Source: "linkedin", Medium: "paid", Campaign: "q3"}, got)
	assert.True(t, FromQuery(url.Values{}).IsEmpty())
}

func TestCaptureStoresFullSet(t *testing.T) {
	ctx := context.Background()
	kv := visitor.NewMemory()
	c := New(kv)

	wrote, err := c.Capture(ctx, "v1", query(t, "utm_source=google&utm_campaign=brand"))
	require.NoError(t, err)
	assert.True(t, wrote)

	raw, ok, _ := kv.Get(ctx, "v1", StorageKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"utm_source":"google","utm_medium":"","utm_campaign":"brand","utm_term":"","utm_content":""}`, raw)
}

func TestEmptyCaptureKeepsStoredValue(t *testing.T) {
	ctx := context.Background()
	c := New(visitor.NewMemory())

	_, err := c.Capture(ctx, "v1", query(t, "utm_source=reddit&utm_medium=social"))
	require.NoError(t, err)

	wrote, err := c.Capture(ctx, "v1", query(t, "utm_source=&page=2"))
	require.NoError(t, err)
	assert.False(t, wrote)

	stored, ok, err := c.Stored(ctx, "v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "reddit", stored.Source)
	assert.Equal(t, "social", stored.Medium)
}

func TestNewCampaignOverwrites(t *testing.T) {
	ctx := context.Background()
	c := New(visitor.NewMemory())

	_, err := c.Capture(ctx, "v1", query(t, "utm_source=reddit&utm_medium=social"))
	require.NoError(t, err)
	_, err = c.Capture(ctx, "v1", query(t, "utm_source=x"))
	require.NoError(t, err)

	stored, _, err := c.Stored(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, models.AttributionParams{Source: "x"}, stored)
}

func TestCaptureOncePerSession(t *testing.T) {
	ctx := context.Background()
	c := New(visitor.NewMemory())
	id := visitor.Identity{VisitorID: "v1", SessionID: "s1"}

	wrote, err := c.CaptureOnce(ctx, id, query(t, "utm_source=first"))
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = c.CaptureOnce(ctx, id, query(t, "utm_source=second"))
	require.NoError(t, err)
	assert.False(t, wrote)

	stored, _, _ := c.Stored(ctx, "v1")
	assert.Equal(t, "first", stored.Source)

	// A new session captures again.
	wrote, err = c.CaptureOnce(ctx, visitor.Identity{VisitorID: "v1", SessionID: "s2"}, query(t, "utm_source=third"))
	require.NoError(t, err)
	assert.True(t, wrote)
	stored, _, _ = c.Stored(ctx, "v1")
	assert.Equal(t, "third", stored.Source)
}

func TestStoredMalformed(t *testing.T) {
	ctx := context.Background()
	kv := visitor.NewMemory()
	require.NoError(t, kv.Set(ctx, "v1", StorageKey, "garbage"))

	_, ok, err := New(kv).Stored(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}
