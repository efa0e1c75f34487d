// Package systems provides the leaf simulation systems: the world grid,
// procedural terrain generation, and the day/season light model.
package systems

// TileType represents the kind of terrain in a cell.
type TileType uint8

const (
	Soil TileType = iota
	Water
)

// String returns the tile type name used in the world export.
func (t TileType) String() string {
	if t == Water {
		return "Water"
	}
	return "Soil"
}

// Tile is the abiotic state of one cell.
type Tile struct {
	Type     TileType
	Water    float64
	Nutrient float64
}

// World is the grid of tiles plus the occupancy index. The occupancy index
// is redundant with organism positions and must be updated in the same
// logical step as any organism creation or destruction.
type World struct {
	width, height int
	tiles         []Tile
	occupied      []bool
}

// NewWorld creates a world of the given dimensions with every cell set to
// the same soil tile.
func NewWorld(width, height int, soil Tile) *World {
	w := &World{
		width:    width,
		height:   height,
		tiles:    make([]Tile, width*height),
		occupied: make([]bool, width*height),
	}
	for i := range w.tiles {
		w.tiles[i] = soil
	}
	return w
}

// At returns the tile at (x, y). Coordinates must be in bounds.
func (w *World) At(x, y int) *Tile {
	return &w.tiles[y*w.width+x]
}

// InBounds reports whether (x, y) is a valid cell coordinate.
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.width && y >= 0 && y < w.height
}

// Occupied reports whether a living organism holds the cell.
func (w *World) Occupied(x, y int) bool {
	return w.occupied[y*w.width+x]
}

// SetOccupied marks the cell as held by a living organism.
func (w *World) SetOccupied(x, y int) {
	w.occupied[y*w.width+x] = true
}

// ClearOccupied releases the cell.
func (w *World) ClearOccupied(x, y int) {
	w.occupied[y*w.width+x] = false
}

// Rain adds water to every soil tile.
func (w *World) Rain(amount float64) {
	for i := range w.tiles {
		if w.tiles[i].Type == Soil {
			w.tiles[i].Water += amount
		}
	}
}

// Width returns the grid width.
func (w *World) Width() int {
	return w.width
}

// Height returns the grid height.
func (w *World) Height() int {
	return w.height
}

// Capacity returns the number of cells, the hard population ceiling.
func (w *World) Capacity() int {
	return w.width * w.height
}

// Tiles returns the backing tile slice in row-major order.
func (w *World) Tiles() []Tile {
	return w.tiles
}
