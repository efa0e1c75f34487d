// Package telemetry implements the snapshot emitter: per-tick organism
// records, per-tick aggregate statistics, and the one-time world export.
// Records are buffered and flushed in tick order on an explicit Flush.
package telemetry

import "log/slog"

// OrganismRow is one living organism's state at a tick.
// Column names match the grass_states.csv schema consumed by the viewer.
type OrganismRow struct {
	Tick   int     `csv:"tick"`
	ID     uint32  `csv:"id"`
	X      int     `csv:"x"`
	Y      int     `csv:"y"`
	Age    int     `csv:"age"`
	MaxAge int     `csv:"maxAge"`
	Energy float64 `csv:"energy"`
	SunEff float64 `csv:"sunEff"`
	WatEff float64 `csv:"watEff"`
	NutEff float64 `csv:"nutEff"`
	Decay  float64 `csv:"decay"`
}

// StatsRow is the aggregate record for one tick. Death counters are
// per-tick tallies; the simulation resets them after recording.
type StatsRow struct {
	Tick         int     `csv:"tick"`
	Population   int     `csv:"totalEntities"`
	EnergyDeaths uint64  `csv:"energyDeaths"`
	WaterDeaths  uint64  `csv:"waterDeaths"`
	OldAgeDeaths uint64  `csv:"oldAgeDeaths"`
	MeanEnergy   float64 `csv:"avgGrassEnergy"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s StatsRow) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Int("population", s.Population),
		slog.Uint64("energy_deaths", s.EnergyDeaths),
		slog.Uint64("water_deaths", s.WaterDeaths),
		slog.Uint64("old_age_deaths", s.OldAgeDeaths),
		slog.Float64("mean_energy", s.MeanEnergy),
	)
}

// WorldRow is one cell of the static terrain export.
type WorldRow struct {
	X    int    `csv:"x"`
	Y    int    `csv:"y"`
	Type string `csv:"type"`
}
