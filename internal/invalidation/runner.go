package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"github.com/millennium/areamatch/internal/core/observability"
	"github.com/millennium/areamatch/internal/geo"
)

// Layer is the only layer this service caches.
const Layer = "poi"

// Evictor drops cached entries for cells. *places.CachedFinder satisfies it.
type Evictor interface {
	Evict(ctx context.Context, cells []string) (int, error)
	Res() int
}

type CellMapper interface {
	CellsForBBox(bb geo.Bounds, res int) ([]string, error)
}

type Runner struct {
	log      *slog.Logger
	cfg      Config
	evictor  Evictor
	mapper   CellMapper
	seq      *seqDedupe
	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func New(logger *slog.Logger, cfg Config, ev Evictor, m CellMapper) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		log:     logger,
		cfg:     cfg.withDefaults(),
		evictor: ev,
		mapper:  m,
		seq:     newSeqDedupe(8192),
		assign:  map[int32]struct{}{},
	}
}

func (r *Runner) Enabled() bool { return r.cfg.Enabled }

// Start joins the consumer group and processes events until ctx ends or
// Stop is called. A disabled runner returns nil without connecting.
func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info("invalidation runner disabled")
		return nil
	}
	if r.evictor == nil || r.mapper == nil {
		return errors.New("invalidation runner: evictor and mapper are required")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	h := &groupHandler{
		setup:   r.setAssignment,
		cleanup: func(sarama.ConsumerGroupSession) { r.clearAssignment() },
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", "err", err)
			}
		}()

		for {
			if err := group.Consume(ctx, []string{r.cfg.Topic}, h); err != nil {
				r.log.Error("kafka consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", "err", err)
		}
	}()

	r.log.Info("invalidation runner started",
		"topic", r.cfg.Topic, "group", r.cfg.GroupID, "brokers", r.cfg.Brokers)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("invalidation runner stopped")
}

// Readiness reports whether the group has assigned partitions to us.
func (r *Runner) Readiness() (ready bool, partitions []int32) {
	if !r.assigned.Load() {
		return false, nil
	}
	r.assignMu.RLock()
	defer r.assignMu.RUnlock()
	for p := range r.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

// Check adapts Readiness to a health check. A disabled runner is always ready.
func (r *Runner) Check(context.Context) error {
	if !r.cfg.Enabled {
		return nil
	}
	if ok, _ := r.Readiness(); !ok {
		return errors.New("no partitions assigned")
	}
	return nil
}

func (r *Runner) setAssignment(sess sarama.ConsumerGroupSession) {
	r.assignMu.Lock()
	defer r.assignMu.Unlock()
	r.assign = map[int32]struct{}{}
	for _, parts := range sess.Claims() {
		for _, p := range parts {
			r.assign[p] = struct{}{}
		}
	}
	r.assigned.Store(true)
}

func (r *Runner) clearAssignment() {
	r.assignMu.Lock()
	defer r.assignMu.Unlock()
	r.assigned.Store(false)
	r.assign = map[int32]struct{}{}
}

func (r *Runner) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidationEvent("invalid")
		r.log.Warn("skipping undecodable invalidation event", "offset", msg.Offset, "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		observability.IncInvalidationEvent("invalid")
		r.log.Warn("skipping invalid invalidation event", "offset", msg.Offset, "err", err)
		return nil
	}
	n, err := r.Apply(ctx, ev)
	if err != nil {
		observability.IncInvalidationEvent("error")
		return err
	}
	if n == 0 {
		observability.IncInvalidationEvent("skipped")
	} else {
		observability.IncInvalidationEvent("applied")
	}
	return nil
}

// Apply evicts the cells a validated event covers and returns how many
// cells were evicted. Events for other layers and stale sequence numbers
// are ignored.
func (r *Runner) Apply(ctx context.Context, ev Event) (int, error) {
	if ev.Layer != Layer {
		return 0, nil
	}
	res := r.evictor.Res()

	cells := ev.H3Cells
	if ev.BBox != nil {
		c, err := r.mapper.CellsForBBox(ev.BBox.Bounds(), res)
		if err != nil {
			return 0, fmt.Errorf("cells for bbox: %w", err)
		}
		cells = c
	}

	fresh := cells[:0:0]
	for _, c := range cells {
		if ev.Seq == 0 || r.seq.isNewer(c, ev.Seq) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	removed, err := r.evictor.Evict(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("evict %d cells: %w", len(fresh), err)
	}
	// recorded only after a successful evict so a redelivery retries
	if ev.Seq != 0 {
		for _, c := range fresh {
			r.seq.record(c, ev.Seq)
		}
	}
	observability.AddInvalidatedCells(len(fresh))
	r.log.Info("cells invalidated",
		"op", ev.Op,
		"cells", len(fresh),
		"entries", removed,
		"source", ev.Source)
	return len(fresh), nil
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return fmt.Errorf("process (part=%d, off=%d): %w", msg.Partition, msg.Offset, err)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
