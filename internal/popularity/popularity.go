// Package popularity counts area lookups per H3 cell with exponential decay.
// Hot cells keep cached POIs longer.
package popularity

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/millennium/areamatch/internal/core/observability"
)

const (
	numShards = 32

	// Cells whose decayed score drops below pruneBelow are forgotten.
	pruneBelow = 0.01
	// A shard sweeps itself after this many new cells.
	sweepEvery = 256
)

type Tracker struct {
	halfLife  time.Duration
	threshold float64

	now func() time.Time

	shards [numShards]shard
}

type shard struct {
	mu      sync.Mutex
	m       map[string]*counter
	inserts int
}

type counter struct {
	score float64
	last  time.Time
}

// New returns a tracker whose scores halve every halfLife. A cell is hot
// once its score reaches threshold.
func New(halfLife time.Duration, threshold float64) *Tracker {
	if halfLife <= 0 {
		halfLife = 10 * time.Minute
	}
	t := &Tracker{halfLife: halfLife, threshold: threshold, now: time.Now}
	for i := range t.shards {
		t.shards[i].m = make(map[string]*counter)
	}
	return t
}

// Touch records one lookup and returns the updated score.
func (t *Tracker) Touch(cell string) float64 {
	if cell == "" {
		return 0
	}
	s := t.pick(cell)
	n := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.m[cell]
	if c == nil {
		s.inserts++
		if s.inserts >= sweepEvery {
			t.sweep(s, n)
		}
		s.m[cell] = &counter{score: 1, last: n}
		return 1
	}
	c.score = decay(c.score, n.Sub(c.last).Seconds(), t.halfLife.Seconds()) + 1
	c.last = n
	return c.score
}

func (t *Tracker) Score(cell string) float64 {
	if cell == "" {
		return 0
	}
	s := t.pick(cell)
	s.mu.Lock()
	c := s.m[cell]
	if c == nil {
		s.mu.Unlock()
		return 0
	}
	score, last := c.score, c.last
	s.mu.Unlock()

	return decay(score, t.now().Sub(last).Seconds(), t.halfLife.Seconds())
}

func (t *Tracker) Hot(cell string) bool {
	return t.threshold > 0 && t.Score(cell) >= t.threshold
}

func (t *Tracker) Reset(cells ...string) {
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		s := t.pick(cell)
		s.mu.Lock()
		delete(s.m, cell)
		s.mu.Unlock()
	}
}

func (t *Tracker) Size() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.Lock()
		total += len(t.shards[i].m)
		t.shards[i].mu.Unlock()
	}
	return total
}

// Prune forgets cells that have cooled below pruneBelow and returns how
// many were dropped.
func (t *Tracker) Prune() int {
	n := t.now()
	removed := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		removed += t.sweep(s, n)
		s.mu.Unlock()
	}
	return removed
}

// RunPruner calls Prune every interval until ctx ends and reports the
// number of tracked cells.
func (t *Tracker) RunPruner(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = t.halfLife
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.Prune()
			observability.SetTrackedCells(t.Size())
		}
	}
}

// caller holds s.mu
func (t *Tracker) sweep(s *shard, now time.Time) int {
	s.inserts = 0
	removed := 0
	hl := t.halfLife.Seconds()
	for cell, c := range s.m {
		if decay(c.score, now.Sub(c.last).Seconds(), hl) < pruneBelow {
			delete(s.m, cell)
			removed++
		}
	}
	return removed
}

// score * e^(-ln2/halfLife * dt)
func decay(score, dt, halfLife float64) float64 {
	if score == 0 || dt <= 0 || halfLife <= 0 {
		return score
	}
	return score * math.Exp(-math.Ln2/halfLife*dt)
}

func (t *Tracker) pick(cell string) *shard {
	return &t.shards[xxhash.Sum64String(cell)%numShards]
}
