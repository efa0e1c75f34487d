// Package sim implements the tick-driven grass population simulation.
//
// A Simulation owns all mutable run state: the world grid with its occupancy
// index, the ECS registry of organisms, the seeded random source, and the
// per-tick death and energy counters. Nothing is process-global, so multiple
// simulations can run in isolation.
package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// Gene baselines and per-tick rates. These are part of the model itself,
// not tunables, so they live here rather than in the config surface.
const (
	baselineEff   = 1.0
	baselineDecay = 0.5

	sunlightRate = 0.1  // energy per tick at full sun and efficiency 1
	waterRate    = 0.05 // max water drawn from the tile per tick
	nutrientRate = 0.05 // max nutrient drawn from the tile per tick

	energyDeathThreshold = 0.2 // at or below, the organism starves
	waterDeathReturn     = 0.5 // min nutrient returned on water exhaustion
	deathReturn          = 1.0 // min nutrient returned on other deaths

	seedDecayNoise  = 0.1  // decay-gene noise scale at initial seeding
	birthDecayNoise = 0.02 // decay-gene noise scale at reproduction
	maxAgeNoise     = 10.0 // lifespan noise scale, in ticks
	minChildMaxAge  = 10
)

// ErrInvariant reports simulation state that should be unreachable:
// negative resources or energy, a stale occupancy index, or a population
// above grid capacity. It indicates a logic defect and is fatal.
var ErrInvariant = errors.New("simulation invariant violated")

// Sink consumes simulation snapshots. Implementations must buffer and keep
// records in tick order; Flush is the explicit point where buffered data
// becomes durable. A Sink error is fatal to the run, since a torn snapshot
// stream invalidates any downstream analysis.
type Sink interface {
	WriteWorld(w *systems.World) error
	WriteTick(rows []telemetry.OrganismRow) error
	WriteStats(row telemetry.StatsRow) error
	Flush() error
}

// Options configures a new Simulation.
type Options struct {
	Config *config.Config
	Sink   Sink
	// LogStats enables a structured population summary on every flush.
	LogStats bool
}

// Simulation is one self-contained run.
type Simulation struct {
	cfg   *config.Config
	world *systems.World
	sink  Sink

	reg    *ecs.World
	mapper *ecs.Map4[components.Position, components.Genes, components.Age, components.Energy]
	filter *ecs.Filter4[components.Position, components.Genes, components.Age, components.Energy]

	// One source feeds both the uniform and Gaussian draws; the draw order
	// across seeding and reproduction is part of the determinism contract.
	rng   *rand.Rand
	gauss distuv.Normal

	tick  int
	alive int

	// Per-tick death tallies and mean energy, reset after every
	// stats record.
	waterDeaths  uint64
	energyDeaths uint64
	oldAgeDeaths uint64
	meanEnergy   float64

	logStats bool

	// Reusable buffers for the tick pipeline
	toKill   []death
	births   []birth
	rows     []telemetry.OrganismRow
	energies []float64
}

type death struct {
	entity ecs.Entity
	x, y   int
}

type birth struct {
	pos    components.Position
	genes  components.Genes
	age    components.Age
	energy components.Energy
}

// New validates the configuration, generates terrain, exports the static
// world through the sink, and seeds the initial population.
func New(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	world := systems.GenerateTerrain(cfg)
	if opts.Sink != nil {
		if err := opts.Sink.WriteWorld(world); err != nil {
			return nil, fmt.Errorf("world export: %w", err)
		}
	}

	s := newSimulation(cfg, opts.Sink, world)
	s.logStats = opts.LogStats
	s.seedPopulation()
	return s, nil
}

// newSimulation wires up a simulation over a prepared world grid.
func newSimulation(cfg *config.Config, sink Sink, world *systems.World) *Simulation {
	reg := ecs.NewWorld()
	seed := uint64(cfg.Simulation.Seed)
	rng := rand.New(rand.NewPCG(seed, seed))

	return &Simulation{
		cfg:    cfg,
		world:  world,
		sink:   sink,
		reg:    reg,
		mapper: ecs.NewMap4[components.Position, components.Genes, components.Age, components.Energy](reg),
		filter: ecs.NewFilter4[components.Position, components.Genes, components.Age, components.Energy](reg),
		rng:    rng,
		gauss:  distuv.Normal{Mu: 0, Sigma: cfg.Mutation.StdDev, Src: rng},
	}
}

// seedPopulation scatters grass over unoccupied soil cells. The row-major
// scan order fixes the random draw sequence for reproducibility.
func (s *Simulation) seedPopulation() {
	cfg := s.cfg
	for y := 0; y < s.world.Height(); y++ {
		for x := 0; x < s.world.Width(); x++ {
			if s.world.At(x, y).Type != systems.Soil || s.world.Occupied(x, y) {
				continue
			}
			if s.rng.Float64() >= cfg.Population.InitialDensity {
				continue
			}

			genes := components.Genes{
				SunlightEff: baselineEff + s.gauss.Rand(),
				WaterEff:    baselineEff + s.gauss.Rand(),
				NutrientEff: baselineEff + s.gauss.Rand(),
				DecayRate:   baselineDecay + s.gauss.Rand()*seedDecayNoise,
			}
			age := components.Age{
				Current: 0,
				Max:     cfg.Population.BaseMaxAge + int(s.gauss.Rand()*maxAgeNoise+0.5),
			}
			energy := components.Energy{Value: cfg.Population.InitialEnergy}
			s.spawn(components.Position{X: x, Y: y}, genes, age, energy)
		}
	}
}

// spawn creates a living organism and claims its cell in the same step.
// Ark recycles the slots of destroyed organisms, so sustained birth/death
// churn does not grow the registry.
func (s *Simulation) spawn(pos components.Position, genes components.Genes, age components.Age, energy components.Energy) ecs.Entity {
	e := s.mapper.NewEntity(&pos, &genes, &age, &energy)
	s.world.SetOccupied(pos.X, pos.Y)
	s.alive++
	return e
}

// mutate returns a copy of the parent genes with independent Gaussian noise
// per trait. Noise is unclamped; traits can drift negative.
func (s *Simulation) mutate(g components.Genes) components.Genes {
	g.SunlightEff += s.gauss.Rand()
	g.WaterEff += s.gauss.Rand()
	g.NutrientEff += s.gauss.Rand()
	g.DecayRate += s.gauss.Rand() * birthDecayNoise
	return g
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int {
	return s.tick
}

// Alive returns the current live population.
func (s *Simulation) Alive() int {
	return s.alive
}

// World returns the world grid.
func (s *Simulation) World() *systems.World {
	return s.world
}

// CheckInvariants verifies that the occupancy index exactly tracks living
// organisms, that no two organisms share a cell, that population respects
// grid capacity, and that no tile or organism carries a negative resource.
func (s *Simulation) CheckInvariants() error {
	if s.alive > s.world.Capacity() {
		return fmt.Errorf("%w: population %d exceeds capacity %d", ErrInvariant, s.alive, s.world.Capacity())
	}

	seen := make(map[components.Position]bool, s.alive)
	count := 0
	query := s.filter.Query()
	for query.Next() {
		pos, _, _, energy := query.Get()
		count++
		if seen[*pos] {
			return fmt.Errorf("%w: two organisms share cell (%d,%d)", ErrInvariant, pos.X, pos.Y)
		}
		seen[*pos] = true
		if !s.world.Occupied(pos.X, pos.Y) {
			return fmt.Errorf("%w: organism at (%d,%d) but cell not marked occupied", ErrInvariant, pos.X, pos.Y)
		}
		if energy.Value < 0 {
			return fmt.Errorf("%w: negative energy %g at (%d,%d)", ErrInvariant, energy.Value, pos.X, pos.Y)
		}
	}
	if count != s.alive {
		return fmt.Errorf("%w: population counter %d but %d organisms stored", ErrInvariant, s.alive, count)
	}

	for y := 0; y < s.world.Height(); y++ {
		for x := 0; x < s.world.Width(); x++ {
			if s.world.Occupied(x, y) && !seen[components.Position{X: x, Y: y}] {
				return fmt.Errorf("%w: cell (%d,%d) marked occupied but empty", ErrInvariant, x, y)
			}
			t := s.world.At(x, y)
			if t.Water < 0 || t.Nutrient < 0 {
				return fmt.Errorf("%w: negative resources at (%d,%d): water=%g nutrient=%g", ErrInvariant, x, y, t.Water, t.Nutrient)
			}
		}
	}
	return nil
}
