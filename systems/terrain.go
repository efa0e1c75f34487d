package systems

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/meadow/config"
)

// GenerateTerrain builds the initial world grid from the terrain seed:
// a uniform soil plain, a circular lake in the center, and rivers walked
// outward from random points on the lake perimeter. The result depends only
// on the seed and dimensions; the same seed always produces the same grid.
func GenerateTerrain(cfg *config.Config) *World {
	width, height := cfg.World.Width, cfg.World.Height
	seed := uint64(cfg.Terrain.Seed)
	rng := rand.New(rand.NewPCG(seed, seed))

	w := NewWorld(width, height, Tile{
		Type:     Soil,
		Water:    cfg.Terrain.SoilWater,
		Nutrient: cfg.Terrain.SoilNutrient,
	})

	// Lake: a disk around the grid center. Lake water carries no nutrient.
	cx, cy := width/2, height/2
	r := min(width, height) / 6
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				t := w.At(x, y)
				t.Type = Water
				t.Water = cfg.Terrain.LakeWater
				t.Nutrient = 0
			}
		}
	}

	// Rivers: random-walk outward from the lake perimeter, one grid unit per
	// step, with the heading perturbed by up to 0.2 radians each step.
	for i := 0; i < cfg.Terrain.Rivers; i++ {
		angle := float64(rng.IntN(360)) * math.Pi / 180.0
		x := float64(cx) + float64(r)*math.Cos(angle)
		y := float64(cy) + float64(r)*math.Sin(angle)
		for step := 0; step < width; step++ {
			xi := min(max(int(x), 0), width-1)
			yi := min(max(int(y), 0), height-1)
			t := w.At(xi, yi)
			t.Type = Water
			t.Water = cfg.Terrain.RiverWater
			angle += (rng.Float64() - 0.5) * 0.4
			x += math.Cos(angle)
			y += math.Sin(angle)
		}
	}

	return w
}
