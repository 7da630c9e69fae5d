package hexagon

const (
	DefaultScreenSize = 60.0
	DefaultLineWidth  = 2.0
	fillAlpha         = 0.6
	strokeAlpha       = 0.8
)

// OverlayProvider is what a map surface needs to draw an area hexagon.
type OverlayProvider interface {
	Vertices() [6]Point
	ColorFor(c Category) Color
}

type Overlay struct {
	cell      Cell
	center    Point
	zoomScale float64
}

var _ OverlayProvider = (*Overlay)(nil)

// NewOverlay anchors cell at its projected center. zoomScale is screen
// points per map point; non-positive values are treated as 1.
func NewOverlay(cell Cell, proj Projector, zoomScale float64) *Overlay {
	if zoomScale <= 0 {
		zoomScale = 1
	}
	return &Overlay{
		cell:      cell,
		center:    proj.Project(cell.CenterLatitude(), cell.CenterLongitude()),
		zoomScale: zoomScale,
	}
}

func (o *Overlay) Cell() Cell { return o.cell }

func (o *Overlay) Center() Point { return o.center }

// Size in map points, so the hexagon keeps the same screen size at any zoom.
func (o *Overlay) Size() float64 { return DefaultScreenSize / o.zoomScale }

func (o *Overlay) LineWidth() float64 { return DefaultLineWidth / o.zoomScale }

func (o *Overlay) Vertices() [6]Point {
	return Vertices(o.center, o.Size(), o.cell.RotationDegrees())
}

func (o *Overlay) ColorFor(c Category) Color { return c.Color() }

type Style struct {
	Fill      Color
	Stroke    Color
	LineWidth float64
}

type Shape struct {
	Vertices   [6]Point
	Style      Style
	Cell       Cell
	Properties map[string]any
}

type Canvas interface {
	DrawPolygon(s Shape)
}

type Renderer struct{}

func (Renderer) Draw(c Canvas, o *Overlay, props map[string]any) {
	base := o.ColorFor(o.cell.Category())
	c.DrawPolygon(Shape{
		Vertices: o.Vertices(),
		Style: Style{
			Fill:      base.WithAlpha(fillAlpha),
			Stroke:    base.WithAlpha(strokeAlpha),
			LineWidth: o.LineWidth(),
		},
		Cell:       o.cell,
		Properties: props,
	})
}
