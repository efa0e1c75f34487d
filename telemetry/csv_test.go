package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/systems"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.World.Width = 8
	cfg.World.Height = 6
	cfg.Simulation.MaxTicks = 20
	cfg.Simulation.SaveInterval = 5
	cfg.ComputeDerived()
	return cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCSVSinkGrassStates(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)

	sink, err := NewCSVSink(dir, cfg)
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}

	rows := []OrganismRow{
		{Tick: 0, ID: 1, X: 2, Y: 3, Age: 0, MaxAge: 50, Energy: 0.5, SunEff: 1, WatEff: 1, NutEff: 1, Decay: 0.5},
		{Tick: 0, ID: 2, X: 4, Y: 1, Age: 0, MaxAge: 52, Energy: 0.5, SunEff: 1.1, WatEff: 0.9, NutEff: 1, Decay: 0.48},
	}
	if err := sink.WriteTick(rows); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := sink.WriteTick(rows[:1]); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "grass_states.csv"))
	want := []string{
		"# WIDTH=8",
		"# HEIGHT=6",
		"# MAX_TICKS=20",
		"# SAVE_INTERVAL=5",
		"tick,id,x,y,age,maxAge,energy,sunEff,watEff,nutEff,decay",
	}
	if len(lines) != len(want)+3 {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want)+3, strings.Join(lines, "\n"))
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
	// Header appears exactly once.
	for _, l := range lines[len(want):] {
		if strings.HasPrefix(l, "tick,id") {
			t.Errorf("duplicate header row: %q", l)
		}
	}
}

func TestCSVSinkStats(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(dir, testConfig(t))
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}

	if err := sink.WriteStats(StatsRow{Tick: 0, Population: 10, MeanEnergy: 0.5}); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	if err := sink.WriteStats(StatsRow{Tick: 1, Population: 9, EnergyDeaths: 1, MeanEnergy: 0.48}); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "simulation_stats.csv"))
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if lines[0] != "tick,totalEntities,energyDeaths,waterDeaths,oldAgeDeaths,avgGrassEnergy" {
		t.Errorf("stats header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "1,9,1,0,0,") {
		t.Errorf("stats row = %q", lines[2])
	}
}

func TestCSVSinkWriteWorld(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	sink, err := NewCSVSink(dir, cfg)
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}
	defer sink.Close()

	w := systems.NewWorld(cfg.World.Width, cfg.World.Height, systems.Tile{Type: systems.Soil, Water: 10, Nutrient: 5000})
	w.At(3, 2).Type = systems.Water
	if err := sink.WriteWorld(w); err != nil {
		t.Fatalf("WriteWorld: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "world_state.csv"))
	if lines[0] != "x,y,type" {
		t.Errorf("world header = %q", lines[0])
	}
	if got := len(lines) - 1; got != w.Capacity() {
		t.Errorf("got %d cell rows, want %d", got, w.Capacity())
	}
	// Row-major order: (3,2) is row 2*8+3 after the header.
	if want := "3,2,Water"; lines[1+2*8+3] != want {
		t.Errorf("cell row = %q, want %q", lines[1+2*8+3], want)
	}
}

func TestCSVSinkWritesConfig(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(dir, testConfig(t))
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}
	defer sink.Close()

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
	if sink.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", sink.Dir(), dir)
	}
}
