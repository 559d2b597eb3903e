package city

import (
	"fmt"
	"math"
)

// TileDef describes one legend entry of the city map.
type TileDef struct {
	Name          string  `json:"name"`
	SurfaceWeight float64 `json:"surface_weight"`
	Blocked       bool    `json:"blocked"`
}

// Data is the raw city file shape (validated by internal/sim/catalogs).
type Data struct {
	Name    string             `json:"name"`
	Version string             `json:"version"`
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	Tiles   []string           `json:"tiles"`
	Legend  map[string]TileDef `json:"legend"`
	Goal    float64            `json:"goal"`
}

// City is an immutable tile grid. Row-major: Tiles[y][x].
type City struct {
	Name   string
	Width  int
	Height int
	Goal   float64

	tiles  []string
	legend map[string]TileDef
}

func New(d Data) (*City, error) {
	if len(d.Tiles) == 0 {
		return nil, fmt.Errorf("city %q: no tiles", d.Name)
	}
	for y, row := range d.Tiles {
		if len(row) != len(d.Tiles[0]) {
			return nil, fmt.Errorf("city %q: ragged row %d", d.Name, y)
		}
		for _, r := range row {
			if _, ok := d.Legend[string(r)]; !ok {
				return nil, fmt.Errorf("city %q: tile %q not in legend", d.Name, string(r))
			}
		}
	}
	return &City{
		Name:   d.Name,
		Width:  len(d.Tiles[0]),
		Height: len(d.Tiles),
		Goal:   d.Goal,
		tiles:  d.Tiles,
		legend: d.Legend,
	}, nil
}

func (c *City) IsValid(x, y int) bool {
	return y >= 0 && y < c.Height && x >= 0 && x < c.Width
}

func (c *City) tileDef(x, y int) (TileDef, bool) {
	if !c.IsValid(x, y) {
		return TileDef{}, false
	}
	d, ok := c.legend[string(c.tiles[y][x])]
	return d, ok
}

// IsBlocked reports whether a tile cannot be entered. Out of bounds
// counts as blocked.
func (c *City) IsBlocked(x, y int) bool {
	d, ok := c.tileDef(x, y)
	if !ok {
		return true
	}
	return d.Blocked
}

// SurfaceWeight is the speed multiplier of the tile (1.0 = normal).
func (c *City) SurfaceWeight(x, y int) float64 {
	d, ok := c.tileDef(x, y)
	if !ok || d.SurfaceWeight <= 0 {
		return 1.0
	}
	return d.SurfaceWeight
}

// TraversalCost is the step cost of entering the tile, +Inf when the
// tile is blocked or out of bounds. Slow surfaces cost more than 1;
// the cost never drops below 1 so the Manhattan heuristic stays
// admissible for the planner.
func (c *City) TraversalCost(x, y int) float64 {
	if c.IsBlocked(x, y) {
		return math.Inf(1)
	}
	cost := 1.0 / c.SurfaceWeight(x, y)
	if cost < 1.0 {
		cost = 1.0
	}
	return cost
}

// Neighbors returns in-bounds cardinal neighbors in a fixed order.
func (c *City) Neighbors(x, y int) [][2]int {
	out := make([][2]int, 0, 4)
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := x+d[0], y+d[1]
		if c.IsValid(nx, ny) {
			out = append(out, [2]int{nx, ny})
		}
	}
	return out
}

// WalkableTiles lists every unblocked position, row-major.
func (c *City) WalkableTiles() [][2]int {
	var out [][2]int
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			if !c.IsBlocked(x, y) {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}
