// Package carousel holds the index arithmetic of an infinitely looping
// slide strip.
//
// The strip is rendered as clones of the last Visible slides, the real
// slides, then clones of the first Visible slides. Sliding past either end
// lands on a clone that looks identical to a real slide, so the view can
// jump there without animation and the loop appears seamless.
package carousel

// Track describes Len slides of which Visible are shown at once.
type Track struct {
	Len     int
	Visible int
}

// New clamps visible to [1, n]. An empty track has Visible 0.
func New(n, visible int) Track {
	if n <= 0 {
		return Track{}
	}
	if visible < 1 {
		visible = 1
	}
	if visible > n {
		visible = n
	}
	return Track{Len: n, Visible: visible}
}

// Loops reports whether there are more slides than fit on screen.
func (t Track) Loops() bool {
	return t.Len > t.Visible
}

// Normalize maps any integer, including negatives, onto [0, Len).
func (t Track) Normalize(i int) int {
	if t.Len == 0 {
		return 0
	}
	return ((i % t.Len) + t.Len) % t.Len
}

// Next returns the slide after i.
func (t Track) Next(i int) int { return t.Normalize(i + 1) }

// Prev returns the slide before i.
func (t Track) Prev(i int) int { return t.Normalize(i - 1) }

// Window returns the slides visible when i is the first one.
func (t Track) Window(i int) []int {
	if t.Len == 0 {
		return nil
	}
	out := make([]int, t.Visible)
	start := t.Normalize(i)
	for k := range out {
		out[k] = t.Normalize(start + k)
	}
	return out
}

// Extended returns the slide index at every position of the cloned strip.
func (t Track) Extended() []int {
	if t.Len == 0 {
		return nil
	}
	out := make([]int, 0, t.Len+2*t.Visible)
	for k := t.Len - t.Visible; k < t.Len; k++ {
		out = append(out, k)
	}
	for k := 0; k < t.Len; k++ {
		out = append(out, k)
	}
	for k := 0; k < t.Visible; k++ {
		out = append(out, k)
	}
	return out
}

// Offset is the strip position of real slide i.
func (t Track) Offset(i int) int {
	if t.Len == 0 {
		return 0
	}
	return t.Normalize(i) + t.Visible
}

// Settle maps a strip position to the equivalent position on real slides.
// jump is true when pos was a clone and the view must reset without
// animation.
func (t Track) Settle(pos int) (settled int, jump bool) {
	if t.Len == 0 {
		return 0, false
	}
	lo, hi := t.Visible, t.Len+t.Visible
	if pos >= lo && pos < hi {
		return pos, false
	}
	return t.Normalize(pos-t.Visible) + t.Visible, true
}

// Slide returns the real slide index at a strip position.
func (t Track) Slide(pos int) int {
	return t.Normalize(pos - t.Visible)
}
