// Package events publishes listing events to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/millennium/areamatch/internal/core/observability"
)

const TypeListingCreated = "listing.created"

type ListingEvent struct {
	Version   int       `json:"version"`
	Type      string    `json:"type"`
	ListingID int64     `json:"listing_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Price     float64   `json:"price"`
	TS        time.Time `json:"ts"`
	RequestID string    `json:"request_id,omitempty"`
}

type Publisher struct {
	topic   string
	logger  *slog.Logger
	events  chan ListingEvent
	prod    sarama.AsyncProducer
	stopped chan struct{}
	errDone chan struct{}
	once    sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects an async producer to brokers. Events beyond
// queueSize pending are dropped.
func NewPublisher(logger *slog.Logger, brokers []string, topic string, queueSize int) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("events: create async producer: %w", err)
	}
	return newPublisher(logger, prod, topic, queueSize), nil
}

func newPublisher(logger *slog.Logger, prod sarama.AsyncProducer, topic string, queueSize int) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	p := &Publisher{
		topic:   topic,
		logger:  logger,
		events:  make(chan ListingEvent, queueSize),
		prod:    prod,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Error("events: marshal", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(strconv.FormatInt(ev.ListingID, 10)),
				Value: sarama.ByteEncoder(b),
			}
			observability.IncListingEvent("sent")
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				observability.IncListingEvent("error")
				p.logger.Warn("events: producer error", "err", err)
			}
		}
	}()

	return p
}

// Publish queues ev without blocking. A nil publisher discards it.
func (p *Publisher) Publish(ev ListingEvent) {
	if p == nil {
		return
	}
	if ev.Version == 0 {
		ev.Version = 1
	}
	if ev.Type == "" {
		ev.Type = TypeListingCreated
	}
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		observability.IncListingEvent("closed")
		return
	}
	select {
	case p.events <- ev:
	default:
		observability.IncListingEvent("dropped")
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()
		<-p.stopped
		if cerr := p.prod.Close(); cerr != nil {
			err = fmt.Errorf("events: close producer: %w", cerr)
		}
		<-p.errDone
	})
	return err
}
