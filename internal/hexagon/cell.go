package hexagon

import "fmt"

type Category int

const (
	Best Category = iota
	Moderate
	Low
)

func (c Category) String() string {
	switch c {
	case Best:
		return "best"
	case Moderate:
		return "moderate"
	default:
		return "low"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type Color struct {
	R, G, B uint8
	A       float64
}

var (
	green  = Color{R: 52, G: 199, B: 89, A: 1}
	yellow = Color{R: 255, G: 204, B: 0, A: 1}
	red    = Color{R: 255, G: 59, B: 48, A: 1}
)

// Color is fixed per category.
func (c Category) Color() Color {
	switch c {
	case Best:
		return green
	case Moderate:
		return yellow
	default:
		return red
	}
}

func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", c.R, c.G, c.B, c.A)
}

// Cell is an area hexagon anchored to map coordinates.
type Cell struct {
	centerLat float64
	centerLng float64
	rotation  float64
	category  Category
}

func NewCell(lat, lng, rotationDegrees float64, category Category) Cell {
	return Cell{centerLat: lat, centerLng: lng, rotation: rotationDegrees, category: category}
}

func (c Cell) CenterLatitude() float64  { return c.centerLat }
func (c Cell) CenterLongitude() float64 { return c.centerLng }
func (c Cell) RotationDegrees() float64 { return c.rotation }
func (c Cell) Category() Category       { return c.category }
