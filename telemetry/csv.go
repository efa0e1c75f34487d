package telemetry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/systems"
)

// CSVSink writes simulation snapshots as CSV files compatible with the
// playback viewer: grass_states.csv (per-tick organism records),
// simulation_stats.csv (per-tick aggregates), world_state.csv (static
// terrain), and config.yaml (run provenance). Records are buffered;
// callers must Flush on their reporting interval and Close at the end.
type CSVSink struct {
	dir string

	grassFile *os.File
	statsFile *os.File
	grass     *bufio.Writer
	stats     *bufio.Writer

	// Track if headers have been written
	grassHeaderWritten bool
	statsHeaderWritten bool
}

// NewCSVSink creates the output directory and opens the snapshot files.
// The run metadata header on grass_states.csv lets the viewer reconstruct
// frame indexing without access to the config.
func NewCSVSink(dir string, cfg *config.Config) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	s := &CSVSink{dir: dir}

	f, err := os.Create(filepath.Join(dir, "grass_states.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating grass_states.csv: %w", err)
	}
	s.grassFile = f
	s.grass = bufio.NewWriter(f)

	fmt.Fprintf(s.grass, "# WIDTH=%d\n", cfg.World.Width)
	fmt.Fprintf(s.grass, "# HEIGHT=%d\n", cfg.World.Height)
	fmt.Fprintf(s.grass, "# MAX_TICKS=%d\n", cfg.Simulation.MaxTicks)
	fmt.Fprintf(s.grass, "# SAVE_INTERVAL=%d\n", cfg.Simulation.SaveInterval)

	f, err = os.Create(filepath.Join(dir, "simulation_stats.csv"))
	if err != nil {
		s.grassFile.Close()
		return nil, fmt.Errorf("creating simulation_stats.csv: %w", err)
	}
	s.statsFile = f
	s.stats = bufio.NewWriter(f)

	if err := cfg.WriteYAML(filepath.Join(dir, "config.yaml")); err != nil {
		s.grassFile.Close()
		s.statsFile.Close()
		return nil, err
	}

	return s, nil
}

// WriteWorld exports the static terrain once, at startup.
func (s *CSVSink) WriteWorld(w *systems.World) error {
	rows := make([]WorldRow, 0, w.Capacity())
	for y := 0; y < w.Height(); y++ {
		for x := 0; x < w.Width(); x++ {
			rows = append(rows, WorldRow{X: x, Y: y, Type: w.At(x, y).Type.String()})
		}
	}

	f, err := os.Create(filepath.Join(s.dir, "world_state.csv"))
	if err != nil {
		return fmt.Errorf("creating world_state.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("writing world state: %w", err)
	}
	return nil
}

// WriteTick records the living population for one tick.
func (s *CSVSink) WriteTick(rows []OrganismRow) error {
	if !s.grassHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(rows, s.grass); err != nil {
			return fmt.Errorf("writing grass states: %w", err)
		}
		s.grassHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, s.grass); err != nil {
		return fmt.Errorf("writing grass states: %w", err)
	}
	return nil
}

// WriteStats records the aggregate row for one tick.
func (s *CSVSink) WriteStats(row StatsRow) error {
	records := []StatsRow{row}

	if !s.statsHeaderWritten {
		if err := gocsv.Marshal(records, s.stats); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		s.statsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.stats); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// Flush pushes buffered records to disk.
func (s *CSVSink) Flush() error {
	if err := s.grass.Flush(); err != nil {
		return fmt.Errorf("flushing grass states: %w", err)
	}
	if err := s.stats.Flush(); err != nil {
		return fmt.Errorf("flushing stats: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (s *CSVSink) Dir() string {
	return s.dir
}

// Close flushes and closes all output files.
func (s *CSVSink) Close() error {
	firstErr := s.Flush()

	if err := s.grassFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.statsFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
