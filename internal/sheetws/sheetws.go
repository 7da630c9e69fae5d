// Package sheetws drives a sheet.Controller over a WebSocket. Each
// connection owns one controller; every input frame is answered with the
// resulting state.
package sheetws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/millennium/areamatch/internal/core/observability"
	"github.com/millennium/areamatch/internal/sheet"
)

const (
	maxFrameBytes = 4096
	idleTimeout   = 2 * time.Minute
	writeTimeout  = 5 * time.Second
)

// Input is a client frame. DY applies to drag_changed, VY to drag_ended.
type Input struct {
	Type string  `json:"type"`
	DY   float64 `json:"dy,omitempty"`
	VY   float64 `json:"vy,omitempty"`
}

type StateFrame struct {
	Offset   float64 `json:"offset"`
	Expanded bool    `json:"expanded"`
	Phase    string  `json:"phase"`
}

type ErrorFrame struct {
	Error string `json:"error"`
}

type Handler struct {
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	defaultMax float64
}

func NewHandler(logger *slog.Logger, defaultMax float64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultMax <= 0 {
		defaultMax = sheet.DefaultMaxOffset
	}
	return &Handler{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		defaultMax: defaultMax,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	maxOffset := h.defaultMax
	if raw := r.URL.Query().Get("max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !(v > 0) || math.IsInf(v, 1) {
			http.Error(w, `{"error":"max must be a positive number"}`, http.StatusBadRequest)
			return
		}
		maxOffset = v
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "sheet upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	s := &session{conn: conn, logger: h.logger, ctrl: sheet.New(maxOffset)}
	s.ctrl.Subscribe(s.sendState)
	h.logger.DebugContext(r.Context(), "sheet session opened", "max", maxOffset)
	s.run()
}

type session struct {
	conn     *websocket.Conn
	logger   *slog.Logger
	ctrl     *sheet.Controller
	writeErr error
}

func (s *session) run() {
	s.conn.SetReadLimit(maxFrameBytes)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("sheet session read ended", "err", err)
			}
			return
		}
		if err := s.apply(data); err != nil {
			observability.IncSheetInput("invalid")
			s.write(ErrorFrame{Error: err.Error()})
		}
		if s.writeErr != nil {
			s.logger.Debug("sheet session write failed", "err", s.writeErr)
			return
		}
	}
}

func (s *session) apply(data []byte) error {
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.New("malformed frame")
	}
	switch in.Type {
	case "drag_changed":
		s.ctrl.OnDragChanged(in.DY)
	case "drag_ended":
		s.ctrl.OnDragEnded(in.VY)
	case "tap":
		s.ctrl.OnTap()
	default:
		return errors.New("unknown input type " + strconv.Quote(in.Type))
	}
	observability.IncSheetInput(in.Type)
	return nil
}

func (s *session) sendState(st sheet.State) {
	s.write(StateFrame{Offset: st.Offset, Expanded: st.Expanded, Phase: st.Phase.String()})
}

func (s *session) write(v any) {
	if s.writeErr != nil {
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	s.writeErr = s.conn.WriteJSON(v)
}
