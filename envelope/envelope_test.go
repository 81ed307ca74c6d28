package envelope_test

import (
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/redq/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	t.Run("contents and metadata", func(t *testing.T) {
		e := envelope.Wrap("apple", map[string]any{"retries": 2})

		wire, err := e.Serialize()
		require.NoError(t, err)
		assert.JSONEq(t, `{"contents":"apple","retries":2}`, wire)
	})

	t.Run("structured contents", func(t *testing.T) {
		e := envelope.Wrap(map[string]any{"user_id": 7}, nil)

		wire, err := e.Serialize()
		require.NoError(t, err)
		assert.JSONEq(t, `{"contents":{"user_id":7}}`, wire)
	})

	tests := []struct {
		name     string
		contents any
	}{
		{name: "nil", contents: nil},
		{name: "empty string", contents: ""},
		{name: "empty map", contents: map[string]any{}},
		{name: "empty slice", contents: []int{}},
	}
	for _, tt := range tests {
		t.Run("missing content: "+tt.name, func(t *testing.T) {
			e := envelope.Wrap(tt.contents, map[string]any{"a": 1})

			_, err := e.Serialize()
			require.Error(t, err)
			assert.True(t, errx.IsCodeIn(err, envelope.CodeMissingContent))
			assert.Empty(t, e.String())
		})
	}

	t.Run("zero value contents are not empty", func(t *testing.T) {
		e := envelope.Wrap(0, nil)

		wire, err := e.Serialize()
		require.NoError(t, err)
		assert.JSONEq(t, `{"contents":0}`, wire)
	})
}

func TestParse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		e := envelope.Wrap("foo", map[string]any{"origin_queue": "emails", "retries": 3})
		wire, err := e.Serialize()
		require.NoError(t, err)

		parsed, err := envelope.Parse(wire)
		require.NoError(t, err)
		assert.Equal(t, "foo", parsed.Contents)
		assert.Equal(t, "emails", parsed.OriginQueue())
		assert.Equal(t, 3, parsed.Retries())
		assert.False(t, parsed.Has(envelope.ContentsKey))
	})

	t.Run("numbers keep their go types", func(t *testing.T) {
		meta := map[string]any{
			"priority": 3,
			"ratio":    1.5,
			"ok":       true,
			"nested":   map[string]any{"attempt": 2, "weights": []any{1, 0.25}},
		}
		e := envelope.Wrap(42, meta)
		wire, err := e.Serialize()
		require.NoError(t, err)

		parsed, err := envelope.Parse(wire)
		require.NoError(t, err)
		assert.Equal(t, 42, parsed.Contents)
		assert.Equal(t, meta, parsed.Metadata())

		priority, ok := parsed.Get("priority").(int)
		require.True(t, ok)
		assert.Equal(t, 3, priority)

		ratio, ok := parsed.Get("ratio").(float64)
		require.True(t, ok)
		assert.InDelta(t, 1.5, ratio, 1e-9)
	})

	t.Run("large ids keep precision", func(t *testing.T) {
		parsed, err := envelope.Parse(`{"contents":"x","item_id":9007199254740993}`)
		require.NoError(t, err)
		assert.Equal(t, int64(9007199254740993), parsed.ItemID())
		assert.Equal(t, 9007199254740993, parsed.Get(envelope.FieldItemID))
	})

	tests := []struct {
		name string
		wire string
	}{
		{name: "not json", wire: "apple"},
		{name: "array", wire: `["a"]`},
		{name: "null", wire: "null"},
		{name: "empty", wire: ""},
	}
	for _, tt := range tests {
		t.Run("malformed: "+tt.name, func(t *testing.T) {
			_, err := envelope.Parse(tt.wire)
			require.Error(t, err)
			assert.True(t, errx.IsCodeIn(err, envelope.CodeMalformedEnvelope))
		})
	}
}

func TestFields(t *testing.T) {
	e := envelope.New()

	assert.Nil(t, e.Get("missing"))
	assert.False(t, e.Has("missing"))
	assert.Zero(t, e.ItemID())
	assert.True(t, e.SubmittedAt().IsZero())

	e.Set(envelope.ContentsKey, "payload")
	assert.Equal(t, "payload", e.Contents)
	assert.Equal(t, "payload", e.Get(envelope.ContentsKey))
	assert.False(t, e.Has(envelope.ContentsKey))

	now := time.Date(2024, 5, 1, 12, 30, 15, 250_000_000, time.UTC)
	e.SetTime(envelope.FieldSubmittedAt, now)
	assert.True(t, now.Equal(e.SubmittedAt()))

	e.Set(envelope.FieldLastTriedAt, "2024-05-01T12:30:15Z")
	assert.Equal(t, 2024, e.LastTriedAt().Year())
}

func TestOpenLater(t *testing.T) {
	now := time.Now()

	e := envelope.Wrap("x", nil)
	assert.False(t, e.OpenLater(now))

	e.SetTime(envelope.FieldRunAt, now.Add(time.Minute))
	assert.True(t, e.OpenLater(now))

	e.SetTime(envelope.FieldRunAt, now.Add(-time.Minute))
	assert.False(t, e.OpenLater(now))
}

func TestClone(t *testing.T) {
	e := envelope.Wrap("x", map[string]any{"tags": map[string]any{"a": "b"}})

	c := e.Clone()
	c.Set("retries", 4)
	tags, ok := c.Get("tags").(map[string]any)
	require.True(t, ok)
	tags["a"] = "changed"

	assert.False(t, e.Has("retries"))
	assert.Equal(t, map[string]any{"a": "b"}, e.Get("tags"))
	assert.Equal(t, 4, c.Retries())
}
