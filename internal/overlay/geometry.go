package overlay

// Rect is a pixel-space rectangle in compositor coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

// PositionFunc reports the bounds of the area the indicator should be
// centered over, typically the focused window or output. It is queried
// once per surface creation; the surface is never re-centered while an
// animation runs. When nil or failing, the surface is left unanchored
// and the compositor centers it on the active output.
type PositionFunc func() (Rect, error)

// CenterMargins computes the top-left layer-shell margins that place a
// surface of the given size at the geometric center of bounds. Margins
// never go negative; a surface larger than the bounds pins to the
// bounds' origin.
func CenterMargins(bounds Rect, width, height int) (left, top int) {
	left = bounds.X + (bounds.Width-width)/2
	top = bounds.Y + (bounds.Height-height)/2
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	return left, top
}
