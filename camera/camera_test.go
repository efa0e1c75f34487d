package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(800, 800, 200, 200)

	// Should be centered on the world, zoomed out to the whole grid
	if cam.X != 100 || cam.Y != 100 {
		t.Errorf("expected camera at (100, 100), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 4.0 {
		t.Errorf("expected zoom 4.0, got %f", cam.Zoom)
	}
	if cam.MinZoom != 4.0 {
		t.Errorf("expected min zoom 4.0, got %f", cam.MinZoom)
	}
}

func TestNewNonSquareViewport(t *testing.T) {
	cam := New(800, 400, 200, 200)

	// Minimum zoom must cover the viewport on both axes
	if cam.MinZoom != 4.0 {
		t.Errorf("expected min zoom 4.0, got %f", cam.MinZoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(800, 800, 200, 200)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(100, 100)
	if math.Abs(float64(sx-400)) > 0.01 || math.Abs(float64(sy-400)) > 0.01 {
		t.Errorf("expected screen center (400, 400), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(800, 800, 200, 200)
	cam.ZoomAt(2.5, 300, 500)

	testCases := []struct{ sx, sy float32 }{
		{400, 400}, // center
		{50, 50},   // top-left
		{780, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(800, 800, 200, 200)
	cam.ZoomAt(4, 400, 400) // zoom in so there is room to pan

	cam.Pan(-1e6, -1e6)
	halfW := cam.ViewportW / (2 * cam.Zoom)
	if math.Abs(float64(cam.X-halfW)) > 0.01 {
		t.Errorf("expected camera clamped at x=%f, got %f", halfW, cam.X)
	}

	// The top-left screen corner must map to world (0, 0), not outside
	wx, wy := cam.ScreenToWorld(0, 0)
	if wx < -0.01 || wy < -0.01 {
		t.Errorf("view extends outside the world: (%f, %f)", wx, wy)
	}
}

func TestPanAtMinZoomStaysCentered(t *testing.T) {
	cam := New(800, 800, 200, 200)

	// The whole world is visible; panning must not move the view
	cam.Pan(300, -300)
	if cam.X != 100 || cam.Y != 100 {
		t.Errorf("expected camera pinned at (100, 100), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomAtKeepsCursorPointFixed(t *testing.T) {
	cam := New(800, 800, 200, 200)
	const sx, sy = 200, 600

	wxBefore, wyBefore := cam.ScreenToWorld(sx, sy)
	cam.ZoomAt(2, sx, sy)
	wxAfter, wyAfter := cam.ScreenToWorld(sx, sy)

	if math.Abs(float64(wxAfter-wxBefore)) > 0.01 || math.Abs(float64(wyAfter-wyBefore)) > 0.01 {
		t.Errorf("cursor point moved: (%f,%f) -> (%f,%f)", wxBefore, wyBefore, wxAfter, wyAfter)
	}
}

func TestZoomClamped(t *testing.T) {
	cam := New(800, 800, 200, 200)

	cam.ZoomAt(0.01, 400, 400)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.ZoomAt(1e9, 400, 400)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestReset(t *testing.T) {
	cam := New(800, 800, 200, 200)
	cam.ZoomAt(3, 100, 100)
	cam.Pan(500, 500)

	cam.Reset()
	if cam.X != 100 || cam.Y != 100 || cam.Zoom != cam.MinZoom {
		t.Errorf("expected whole-world view after reset, got (%f, %f) zoom %f", cam.X, cam.Y, cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(800, 800, 200, 200)
	cam.ZoomAt(4, 400, 400)
	cam.Pan(-1e6, -1e6) // top-left corner of the world

	if !cam.IsVisible(0, 0) {
		t.Error("expected corner cell visible")
	}
	if cam.IsVisible(199, 199) {
		t.Error("expected far corner culled")
	}
}
