// Package components defines the ECS components carried by every grass organism.
package components

// Position is an organism's cell coordinate on the world grid.
// Exactly one living organism may hold a given cell at a time.
type Position struct {
	X, Y int
}

// Genes is the heritable trait vector. Efficiencies scale resource uptake;
// DecayRate is carried and mutated but not consumed by the tick pipeline.
// Mutation noise is unclamped, so traits can drift negative over long runs.
type Genes struct {
	SunlightEff float64
	WaterEff    float64
	NutrientEff float64
	DecayRate   float64
}

// Age tracks ticks lived against an inherited lifespan.
type Age struct {
	Current int
	Max     int
}

// Energy is the accumulated resource reserve. It only changes through
// uptake, reproduction cost, and death return.
type Energy struct {
	Value float64
}
