// Package camera provides a 2D camera for viewport control over a bounded
// cell grid.
package camera

// Camera maps world cell coordinates to screen pixels. Zoom is the pixel
// size of one cell; the visible rectangle is clamped to the world bounds so
// panning never shows space outside the grid.
type Camera struct {
	// Position is the camera center in cell coordinates
	X, Y float32

	// Zoom is pixels per cell
	Zoom float32

	// Viewport dimensions (screen size, pixels)
	ViewportW, ViewportH float32

	// World dimensions (cells)
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world, zoomed out to the whole grid.
// The minimum zoom keeps the world covering the viewport on both axes.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	minZoom := viewportW / worldW
	if z := viewportH / worldH; z > minZoom {
		minZoom = z
	}

	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      minZoom,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   minZoom,
		MaxZoom:   64,
	}
}

// WorldToScreen converts cell coordinates to screen pixels.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen pixels to cell coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// IsVisible reports whether the cell at (wx, wy) intersects the viewport.
// Used to cull draw calls when zoomed in.
func (c *Camera) IsVisible(wx, wy float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + 1
	halfH := c.ViewportH/(2*c.Zoom) + 1
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// the given screen position fixed.
func (c *Camera) ZoomAt(factor, sx, sy float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	// Move the center so (wx, wy) projects back to (sx, sy).
	c.X = wx - (sx-c.ViewportW/2)/c.Zoom
	c.Y = wy - (sy-c.ViewportH/2)/c.Zoom
	c.clampCenter()
}

// Reset returns the camera to the whole-world view.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = c.MinZoom
}

// clampCenter keeps the visible rectangle inside the world bounds. When an
// axis of the world is fully visible the camera centers on it.
func (c *Camera) clampCenter() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	if halfW >= c.WorldW/2 {
		c.X = c.WorldW / 2
	} else {
		c.X = clamp(c.X, halfW, c.WorldW-halfW)
	}
	if halfH >= c.WorldH/2 {
		c.Y = c.WorldH / 2
	} else {
		c.Y = clamp(c.Y, halfH, c.WorldH-halfH)
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
