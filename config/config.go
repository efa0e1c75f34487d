// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Terrain      TerrainConfig      `yaml:"terrain"`
	Simulation   SimulationConfig   `yaml:"simulation"`
	Population   PopulationConfig   `yaml:"population"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Rain         RainConfig         `yaml:"rain"`
	Reproduction ReproductionConfig `yaml:"reproduction"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TerrainConfig holds procedural terrain generation parameters.
// The terrain seed is independent of the population seed so that the same
// landscape can be replayed under different population histories.
type TerrainConfig struct {
	Seed         int64   `yaml:"seed"`
	Rivers       int     `yaml:"rivers"`
	LakeWater    float64 `yaml:"lake_water"`
	RiverWater   float64 `yaml:"river_water"`
	SoilWater    float64 `yaml:"soil_water"`
	SoilNutrient float64 `yaml:"soil_nutrient"`
}

// SimulationConfig holds tick loop parameters.
type SimulationConfig struct {
	MaxTicks        int   `yaml:"max_ticks"`
	DayLength       int   `yaml:"day_length"`
	SaveInterval    int   `yaml:"save_interval"`
	Seed            int64 `yaml:"seed"`
	CheckInvariants bool  `yaml:"check_invariants"` // verify world/population state after every tick (slow)
}

// PopulationConfig holds initial seeding parameters.
type PopulationConfig struct {
	InitialDensity float64 `yaml:"initial_density"` // per-soil-cell seeding probability
	InitialEnergy  float64 `yaml:"initial_energy"`  // starting energy for seeded and newborn grass
	BaseMaxAge     int     `yaml:"base_max_age"`    // lifespan before Gaussian variation
}

// MutationConfig holds gene mutation parameters.
type MutationConfig struct {
	StdDev float64 `yaml:"stddev"`
}

// RainConfig holds environmental replenishment parameters.
type RainConfig struct {
	Interval int     `yaml:"interval"` // ticks between rainfalls
	Amount   float64 `yaml:"amount"`   // water added to each soil tile
}

// ReproductionConfig holds reproduction eligibility parameters.
type ReproductionConfig struct {
	EnergyThreshold  float64 `yaml:"energy_threshold"`
	MaturityFraction float64 `yaml:"maturity_fraction"`  // fraction of maxAge before reproduction
	ParentEnergyKeep float64 `yaml:"parent_energy_keep"` // fraction of energy the parent retains after a birth
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SeasonLength int // 4 day lengths
	Capacity     int // Width * Height, the hard population ceiling
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.ComputeDerived()

	return cfg, nil
}

// ComputeDerived calculates values derived from loaded config.
// Callers that mutate dimensions or day length after loading must call it again.
func (c *Config) ComputeDerived() {
	c.Derived.SeasonLength = 4 * c.Simulation.DayLength
	c.Derived.Capacity = c.World.Width * c.World.Height
}

// Validate checks the configuration for values that would make a run
// meaningless. It is called before any tick runs; a non-nil error is fatal.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.Simulation.MaxTicks <= 0 {
		return fmt.Errorf("config: max_ticks must be positive, got %d", c.Simulation.MaxTicks)
	}
	if c.Simulation.DayLength <= 0 {
		return fmt.Errorf("config: day_length must be positive, got %d", c.Simulation.DayLength)
	}
	if c.Simulation.SaveInterval <= 0 {
		return fmt.Errorf("config: save_interval must be positive, got %d", c.Simulation.SaveInterval)
	}
	if c.Rain.Interval <= 0 {
		return fmt.Errorf("config: rain interval must be positive, got %d", c.Rain.Interval)
	}
	if c.Terrain.Rivers < 0 {
		return fmt.Errorf("config: river count must not be negative, got %d", c.Terrain.Rivers)
	}
	if c.Population.InitialDensity < 0 || c.Population.InitialDensity > 1 {
		return fmt.Errorf("config: initial_density must be in [0,1], got %g", c.Population.InitialDensity)
	}
	if c.Mutation.StdDev < 0 {
		return fmt.Errorf("config: mutation stddev must not be negative, got %g", c.Mutation.StdDev)
	}
	if c.Reproduction.MaturityFraction < 0 || c.Reproduction.MaturityFraction > 1 {
		return fmt.Errorf("config: maturity_fraction must be in [0,1], got %g", c.Reproduction.MaturityFraction)
	}
	if c.Reproduction.ParentEnergyKeep < 0 || c.Reproduction.ParentEnergyKeep > 1 {
		return fmt.Errorf("config: parent_energy_keep must be in [0,1], got %g", c.Reproduction.ParentEnergyKeep)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
