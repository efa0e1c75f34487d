package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// Step advances the simulation by one tick: resource uptake and aging,
// death classification, reproduction, rain, statistics, and the snapshot
// record. Stage order is fixed; each stage runs to completion before the
// next observes the world.
func (s *Simulation) Step() error {
	sunI := systems.Sunlight(s.tick, s.cfg.Simulation.DayLength, s.cfg.Derived.SeasonLength)
	if err := s.step(sunI); err != nil {
		return err
	}
	if s.cfg.Simulation.CheckInvariants {
		if err := s.CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) step(sunI float64) error {
	cfg := s.cfg
	s.toKill = s.toKill[:0]

	// Uptake, aging, and death classification in a single pass. Each living
	// organism owns its cell, so per-organism tile math never interferes.
	energySum := 0.0
	count := 0
	query := s.filter.Query()
	for query.Next() {
		pos, genes, age, energy := query.Get()
		t := s.world.At(pos.X, pos.Y)

		energy.Value += sunI * genes.SunlightEff * sunlightRate
		takenW := math.Min(t.Water, genes.WaterEff*waterRate)
		t.Water -= takenW
		energy.Value += takenW
		takenN := math.Min(t.Nutrient, genes.NutrientEff*nutrientRate)
		t.Nutrient -= takenN
		energy.Value += takenN

		count++
		energySum += energy.Value
		age.Current++

		// Death causes are mutually exclusive; first match wins.
		switch {
		case t.Water <= 0:
			s.waterDeaths++
			t.Nutrient += math.Max(energy.Value, waterDeathReturn)
			s.toKill = append(s.toKill, death{entity: query.Entity(), x: pos.X, y: pos.Y})
		case energy.Value <= energyDeathThreshold:
			s.energyDeaths++
			t.Nutrient += math.Max(energy.Value, deathReturn)
			s.toKill = append(s.toKill, death{entity: query.Entity(), x: pos.X, y: pos.Y})
		case age.Current >= age.Max:
			s.oldAgeDeaths++
			t.Nutrient += math.Max(energy.Value, deathReturn)
			s.toKill = append(s.toKill, death{entity: query.Entity(), x: pos.X, y: pos.Y})
		}
	}

	// Destroy the queued dead: release the cell and the registry slot in the
	// same step so reproduction never sees a stale cell. RemoveEntity frees
	// the slot for reuse; the mapper's Remove would only strip components
	// and leave the entity alive.
	for _, d := range s.toKill {
		s.world.ClearOccupied(d.x, d.y)
		s.reg.RemoveEntity(d.entity)
		s.alive--
	}

	s.reproduce()

	if s.tick%cfg.Rain.Interval == 0 {
		s.world.Rain(cfg.Rain.Amount)
	}

	if count > 0 {
		s.meanEnergy = energySum / float64(count)
	} else {
		s.meanEnergy = 0
	}

	return s.emit()
}

// reproduce runs the birth stage over this tick's survivors. Offspring are
// buffered during the scan and created afterwards; the target cell is
// claimed at queue time so no two parents can book the same cell.
func (s *Simulation) reproduce() {
	cfg := s.cfg
	if s.alive >= s.world.Capacity() {
		return
	}

	s.births = s.births[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, genes, age, energy := query.Get()

		if float64(age.Current) < cfg.Reproduction.MaturityFraction*float64(age.Max) {
			continue
		}
		if energy.Value < cfg.Reproduction.EnergyThreshold {
			continue
		}

		// One candidate neighbor per tick, offsets drawn from {-1,0,1}.
		dx := s.rng.IntN(3) - 1
		dy := s.rng.IntN(3) - 1
		nx, ny := pos.X+dx, pos.Y+dy
		if !s.world.InBounds(nx, ny) || s.world.At(nx, ny).Type != systems.Soil || s.world.Occupied(nx, ny) {
			continue
		}

		childAge := components.Age{
			Current: 0,
			Max:     max(minChildMaxAge, int(float64(age.Max)+s.gauss.Rand()*maxAgeNoise+0.1)),
		}
		s.births = append(s.births, birth{
			pos:    components.Position{X: nx, Y: ny},
			genes:  s.mutate(*genes),
			age:    childAge,
			energy: components.Energy{Value: cfg.Population.InitialEnergy},
		})
		s.world.SetOccupied(nx, ny)
		energy.Value *= cfg.Reproduction.ParentEnergyKeep
	}

	for _, b := range s.births {
		s.spawn(b.pos, b.genes, b.age, b.energy)
	}
}

// emit hands this tick's snapshot to the sink and resets the counters.
func (s *Simulation) emit() error {
	s.rows = s.rows[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, genes, age, energy := query.Get()
		s.rows = append(s.rows, telemetry.OrganismRow{
			Tick:   s.tick,
			ID:     uint32(query.Entity().ID()),
			X:      pos.X,
			Y:      pos.Y,
			Age:    age.Current,
			MaxAge: age.Max,
			Energy: energy.Value,
			SunEff: genes.SunlightEff,
			WatEff: genes.WaterEff,
			NutEff: genes.NutrientEff,
			Decay:  genes.DecayRate,
		})
	}

	stats := telemetry.StatsRow{
		Tick:         s.tick,
		Population:   s.alive,
		EnergyDeaths: s.energyDeaths,
		WaterDeaths:  s.waterDeaths,
		OldAgeDeaths: s.oldAgeDeaths,
		MeanEnergy:   s.meanEnergy,
	}
	s.waterDeaths, s.energyDeaths, s.oldAgeDeaths = 0, 0, 0

	if s.sink != nil {
		if err := s.sink.WriteTick(s.rows); err != nil {
			return fmt.Errorf("snapshot sink: %w", err)
		}
		if err := s.sink.WriteStats(stats); err != nil {
			return fmt.Errorf("snapshot sink: %w", err)
		}
		if s.tick%s.cfg.Simulation.SaveInterval == 0 {
			if err := s.sink.Flush(); err != nil {
				return fmt.Errorf("snapshot sink: %w", err)
			}
			if s.logStats {
				s.energies = s.energies[:0]
				for _, r := range s.rows {
					s.energies = append(s.energies, r.Energy)
				}
				slog.Info("stats", "tick", s.tick, "population", s.alive, "energy", telemetry.Summarize(s.energies))
			}
		}
	}

	s.tick++
	return nil
}

// Run executes the configured tick budget and performs the final flush.
func (s *Simulation) Run() error {
	progressEvery := s.cfg.Simulation.SaveInterval * 10
	for s.tick < s.cfg.Simulation.MaxTicks {
		if err := s.Step(); err != nil {
			return fmt.Errorf("tick %d: %w", s.tick, err)
		}
		if s.tick%progressEvery == 0 {
			slog.Info("progress", "tick", s.tick, "population", s.alive)
		}
	}
	if s.sink != nil {
		if err := s.sink.Flush(); err != nil {
			return fmt.Errorf("snapshot sink: %w", err)
		}
	}
	return nil
}
