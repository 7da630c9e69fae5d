// Package sheet implements the drag-to-expand bottom sheet as a small state
// machine. Offsets are measured in points from the fully open position.
//
// A Controller has exactly one writer (the active gesture), so it does no
// locking; callers that share one across goroutines must serialize access.
package sheet

import "math"

const (
	DefaultMaxOffset = 400.0

	// Resistance is the multiplier applied to drag distance past either end.
	Resistance = 0.3
	// FlickVelocity in points per second decides the snap target on release
	// regardless of position.
	FlickVelocity = 100.0

	// Spring settle parameters for presentation layers.
	SpringResponse = 0.4
	SpringDamping  = 0.75
)

type Phase int

const (
	Collapsed Phase = iota
	Expanded
	Dragging
)

func (p Phase) String() string {
	switch p {
	case Expanded:
		return "expanded"
	case Dragging:
		return "dragging"
	default:
		return "collapsed"
	}
}

type State struct {
	Offset   float64
	Expanded bool
	Phase    Phase
}

type Controller struct {
	maxOffset float64
	offset    float64
	phase     Phase
	subs      []func(State)
}

// New returns a collapsed controller. A maxOffset that is not a positive
// finite number uses DefaultMaxOffset.
func New(maxOffset float64) *Controller {
	if !(maxOffset > 0) || math.IsInf(maxOffset, 1) {
		maxOffset = DefaultMaxOffset
	}
	return &Controller{maxOffset: maxOffset, offset: maxOffset, phase: Collapsed}
}

func (c *Controller) MaxOffset() float64 { return c.maxOffset }

func (c *Controller) Offset() float64 { return c.offset }

func (c *Controller) State() State {
	return State{Offset: c.offset, Expanded: c.phase == Expanded, Phase: c.phase}
}

// Subscribe registers fn to be called after every offset change.
func (c *Controller) Subscribe(fn func(State)) {
	if fn != nil {
		c.subs = append(c.subs, fn)
	}
}

// OnDragChanged moves the sheet by deltaY, with elastic resistance outside
// [0, maxOffset]. A non-finite deltaY is ignored.
func (c *Controller) OnDragChanged(deltaY float64) float64 {
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) {
		return c.offset
	}
	next := c.offset + deltaY
	switch {
	case next < 0:
		next *= Resistance
	case next > c.maxOffset:
		next = c.maxOffset + (next-c.maxOffset)*Resistance
	}
	c.offset = next
	c.phase = Dragging
	c.notify()
	return c.offset
}

// OnDragEnded snaps to open or closed. A flick faster than FlickVelocity
// wins; otherwise the nearer half decides.
func (c *Controller) OnDragEnded(velocityY float64) float64 {
	switch {
	case velocityY < -FlickVelocity:
		c.expand()
	case velocityY > FlickVelocity:
		c.collapse()
	case c.offset < c.maxOffset/2:
		c.expand()
	default:
		c.collapse()
	}
	c.notify()
	return c.offset
}

// OnTap toggles between the two rest positions.
func (c *Controller) OnTap() float64 {
	if c.offset > c.maxOffset/2 {
		c.expand()
	} else {
		c.collapse()
	}
	c.notify()
	return c.offset
}

func (c *Controller) expand() {
	c.offset = 0
	c.phase = Expanded
}

func (c *Controller) collapse() {
	c.offset = c.maxOffset
	c.phase = Collapsed
}

func (c *Controller) notify() {
	st := c.State()
	for _, fn := range c.subs {
		fn(st)
	}
}
