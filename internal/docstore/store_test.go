package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	Tags      []string  `json:"tags,omitempty"`
	Published time.Time `json:"published"`
}

func TestEncodeDecode(t *testing.T) {
	when := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	data, err := Encode(sample{Title: "Folio", Order: 3, Tags: []string{"go"}, Published: when})
	require.NoError(t, err)
	assert.Equal(t, "Folio", data["title"])
	assert.Equal(t, float64(3), data["order"])

	var got sample
	require.NoError(t, Decode(Document{ID: "x", Data: data}, &got))
	assert.Equal(t, "Folio", got.Title)
	assert.Equal(t, 3, got.Order)
	assert.True(t, when.Equal(got.Published))
}

func TestDecodeNativeValues(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := Document{ID: "fs", Data: map[string]any{
		"title":     "From Firestore",
		"order":     int64(7),
		"published": when,
		"tags":      []any{"a", "b"},
	}}

	var got sample
	require.NoError(t, Decode(doc, &got))
	assert.Equal(t, 7, got.Order)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.True(t, when.Equal(got.Published))
}

func TestDecodeTypeMismatch(t *testing.T) {
	var got sample
	err := Decode(Document{ID: "bad", Data: map[string]any{"order": "three"}}, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
