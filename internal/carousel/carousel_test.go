package carousel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClamps(t *testing.T) {
	assert.Equal(t, Track{}, New(0, 3))
	assert.Equal(t, Track{Len: 5, Visible: 1}, New(5, 0))
	assert.Equal(t, Track{Len: 2, Visible: 2}, New(2, 3))
	assert.False(t, New(2, 3).Loops())
	assert.True(t, New(5, 3).Loops())
}

func TestNormalizeWraps(t *testing.T) {
	tr := New(5, 1)
	assert.Equal(t, 0, tr.Normalize(5))
	assert.Equal(t, 4, tr.Normalize(-1))
	assert.Equal(t, 3, tr.Normalize(-12))
	assert.Equal(t, 0, tr.Next(4))
	assert.Equal(t, 4, tr.Prev(0))
}

func TestWindow(t *testing.T) {
	tr := New(5, 3)
	assert.Equal(t, []int{0, 1, 2}, tr.Window(0))
	assert.Equal(t, []int{3, 4, 0}, tr.Window(3))
	assert.Equal(t, []int{4, 0, 1}, tr.Window(-1))
	assert.Equal(t, []int{0, 1}, New(2, 3).Window(0))
}

func TestExtendedAndOffset(t *testing.T) {
	tr := New(4, 2)
	assert.Equal(t, []int{2, 3, 0, 1, 2, 3, 0, 1}, tr.Extended())
	assert.Equal(t, 2, tr.Offset(0))
	assert.Equal(t, 5, tr.Offset(3))
	for i := 0; i < tr.Len; i++ {
		assert.Equal(t, i, tr.Extended()[tr.Offset(i)])
		assert.Equal(t, i, tr.Slide(tr.Offset(i)))
	}
}

func TestSettle(t *testing.T) {
	tr := New(4, 2)
	ext := tr.Extended()

	for pos := 2; pos < 6; pos++ {
		got, jump := tr.Settle(pos)
		assert.Equal(t, pos, got)
		assert.False(t, jump)
	}

	// Past the end onto the clone of slide 0.
	got, jump := tr.Settle(6)
	assert.True(t, jump)
	assert.Equal(t, 2, got)
	assert.Equal(t, ext[6], ext[got])

	// Before the start onto the clone of slide 3.
	got, jump = tr.Settle(1)
	assert.True(t, jump)
	assert.Equal(t, 5, got)
	assert.Equal(t, ext[1], ext[got])
}

func TestEmptyTrack(t *testing.T) {
	var tr Track
	assert.Zero(t, tr.Normalize(7))
	assert.Nil(t, tr.Window(1))
	assert.Nil(t, tr.Extended())
	assert.Zero(t, tr.Offset(3))
	got, jump := tr.Settle(9)
	assert.Zero(t, got)
	assert.False(t, jump)
	assert.False(t, tr.Loops())
}
