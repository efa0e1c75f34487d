// Command viewer replays a recorded simulation from its snapshot CSVs.
// It consumes grass_states.csv and world_state.csv and imposes nothing on
// the simulation beyond that schema.
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/meadow/camera"
	"github.com/pthm-cable/meadow/telemetry"
)

const (
	baseFPS  = 10.0 // playback frames per second at speed 1x
	zoomStep = 0.1  // wheel zoom factor per notch
)

// runMeta is the parameters block from the grass_states.csv header comments.
type runMeta struct {
	Width        int
	Height       int
	MaxTicks     int
	SaveInterval int
}

// loadGrassStates reads the organism records and groups them into one frame
// per tick. The leading "# KEY=VALUE" lines carry the run parameters.
func loadGrassStates(path string) (runMeta, [][]telemetry.OrganismRow, error) {
	var meta runMeta

	data, err := os.ReadFile(path)
	if err != nil {
		return meta, nil, err
	}

	rest := data
	for bytes.HasPrefix(rest, []byte("#")) {
		line, tail, _ := bytes.Cut(rest, []byte("\n"))
		rest = tail
		key, val, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(string(line), "#")), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return meta, nil, fmt.Errorf("bad header line %q: %w", line, err)
		}
		switch strings.TrimSpace(key) {
		case "WIDTH":
			meta.Width = n
		case "HEIGHT":
			meta.Height = n
		case "MAX_TICKS":
			meta.MaxTicks = n
		case "SAVE_INTERVAL":
			meta.SaveInterval = n
		}
	}
	if meta.Width == 0 || meta.Height == 0 || meta.MaxTicks == 0 {
		return meta, nil, fmt.Errorf("missing run parameters in %s header", path)
	}

	var rows []telemetry.OrganismRow
	if err := gocsv.UnmarshalBytes(rest, &rows); err != nil {
		return meta, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	frames := make([][]telemetry.OrganismRow, meta.MaxTicks)
	for _, r := range rows {
		if r.Tick >= 0 && r.Tick < meta.MaxTicks {
			frames[r.Tick] = append(frames[r.Tick], r)
		}
	}
	return meta, frames, nil
}

// loadWaterCells reads the static terrain export and keeps the water cells.
func loadWaterCells(path string) ([]telemetry.WorldRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []telemetry.WorldRow
	if err := gocsv.UnmarshalCSV(csv.NewReader(f), &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	water := rows[:0]
	for _, r := range rows {
		if r.Type == "Water" {
			water = append(water, r)
		}
	}
	return water, nil
}

func main() {
	dir := flag.String("dir", "out", "Directory holding the snapshot CSVs")
	scale := flag.Int("scale", 4, "Base pixels per world cell")
	flag.Parse()

	meta, frames, err := loadGrassStates(filepath.Join(*dir, "grass_states.csv"))
	if err != nil {
		log.Fatalf("loading grass states: %v", err)
	}
	water, err := loadWaterCells(filepath.Join(*dir, "world_state.csv"))
	if err != nil {
		log.Fatalf("loading world state: %v", err)
	}

	screenW := int32(meta.Width * *scale)
	screenH := int32(meta.Height * *scale)
	rl.InitWindow(screenW, screenH, "Meadow Viewer")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	cam := camera.New(float32(screenW), float32(screenH), float32(meta.Width), float32(meta.Height))
	paused := false
	speed := float32(1.0)
	timer := float32(0)
	frame := 0
	numFrames := len(frames)

	for !rl.WindowShouldClose() {
		// Input: pause, speed, camera
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}
		if rl.IsKeyPressed(rl.KeyRight) {
			speed = min(speed*2, 16)
		}
		if rl.IsKeyPressed(rl.KeyLeft) {
			speed = max(speed*0.5, 0.25)
		}
		if rl.IsKeyPressed(rl.KeyR) {
			cam.Reset()
		}
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			mouse := rl.GetMousePosition()
			cam.ZoomAt(1+wheel*zoomStep, mouse.X, mouse.Y)
		}
		if rl.IsMouseButtonDown(rl.MouseButtonRight) {
			delta := rl.GetMouseDelta()
			cam.Pan(-delta.X, -delta.Y)
		}

		// Advance playback
		if !paused {
			timer += rl.GetFrameTime() * speed
			frameTime := float32(1.0 / baseFPS)
			if timer >= frameTime {
				steps := int(timer / frameTime)
				frame = (frame + steps) % numFrames
				timer -= float32(steps) * frameTime
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		cell := int32(cam.Zoom) + 1
		for _, w := range water {
			if !cam.IsVisible(float32(w.X), float32(w.Y)) {
				continue
			}
			sx, sy := cam.WorldToScreen(float32(w.X), float32(w.Y))
			rl.DrawRectangle(int32(sx), int32(sy), cell, cell, rl.Blue)
		}
		for _, g := range frames[frame] {
			if !cam.IsVisible(float32(g.X), float32(g.Y)) {
				continue
			}
			color := rl.Green
			color.A = uint8(100 + min(max(g.Energy, 0), 1)*155)
			sx, sy := cam.WorldToScreen(float32(g.X), float32(g.Y))
			rl.DrawRectangle(int32(sx), int32(sy), cell, cell, color)
		}

		// Scrub bar and HUD
		barBounds := rl.Rectangle{X: 10, Y: float32(screenH) - 40, Width: float32(screenW) - 120, Height: 20}
		newFrame := gui.SliderBar(barBounds, "", fmt.Sprintf("%d", frame), float32(frame), 0, float32(numFrames-1))
		if int(newFrame) != frame {
			frame = int(newFrame)
			paused = true
		}
		if gui.Button(rl.Rectangle{X: float32(screenW) - 100, Y: float32(screenH) - 40, Width: 90, Height: 20}, pauseLabel(paused)) {
			paused = !paused
		}

		rl.DrawText(fmt.Sprintf("Tick %d/%d  Grass: %d", frame, numFrames, len(frames[frame])), 10, 10, 20, rl.White)
		rl.DrawText(fmt.Sprintf("Speed: %.2fx %s", speed, pausedSuffix(paused)), 10, 35, 20, rl.White)
		rl.DrawText("[Space]=Pause  [Left/Right]=Speed  [Wheel]=Zoom  [RMB]=Pan  [R]=Reset  [Esc]=Exit", 10, 60, 20, rl.LightGray)

		rl.EndDrawing()
	}
}

func pauseLabel(paused bool) string {
	if paused {
		return "Play"
	}
	return "Pause"
}

func pausedSuffix(paused bool) string {
	if paused {
		return "(Paused)"
	}
	return ""
}
