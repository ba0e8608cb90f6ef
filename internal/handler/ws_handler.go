package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/exam"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/response"
	ws "github.com/stemsi/candidate-portal/internal/websocket"
)

const outboxSize = 64

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs exam attempts over a WebSocket. Each connection owns one
// attempt; an exam can only be open on one connection at a time.
type WSHandler struct {
	backend  exam.Backend
	opts     exam.Options
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	active map[string]struct{}
}

// NewWSHandler creates a new WSHandler. opts is the template for every
// attempt; its Scheduler and Notify are replaced per connection.
func NewWSHandler(backend exam.Backend, opts exam.Options, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 15 * time.Second
	}
	return &WSHandler{
		backend:  backend,
		opts:     opts,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
		active:   make(map[string]struct{}),
	}
}

func (h *WSHandler) acquire(examID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.active[examID]; busy {
		return false
	}
	h.active[examID] = struct{}{}
	return true
}

func (h *WSHandler) release(examID string) {
	h.mu.Lock()
	delete(h.active, examID)
	h.mu.Unlock()
}

// outbox serializes frames onto the connection from a single writer.
type outbox struct {
	frames chan ws.Frame
	done   chan struct{}
	once   sync.Once
	log    zerolog.Logger
}

func (o *outbox) send(f ws.Frame) {
	select {
	case <-o.done:
	case o.frames <- f:
	default:
		o.log.Warn().Str("event", string(f.Event)).Msg("Outbox full, dropping frame")
	}
}

func (o *outbox) close() {
	o.once.Do(func() { close(o.done) })
}

// run writes frames until close, then drains what is already queued.
func (o *outbox) run(conn *websocket.Conn) {
	for {
		select {
		case f := <-o.frames:
			if err := ws.WriteTyped(conn, f); err != nil {
				o.log.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-o.done:
			for {
				select {
				case f := <-o.frames:
					if err := ws.WriteTyped(conn, f); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/exams/:exam_id/stream
// Loads the exam, starts the countdown and the proctoring simulator, then
// relays candidate actions to the attempt and engine events to the client.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	examID := strings.TrimSpace(c.Param("exam_id"))
	if examID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("exam_id", examID).Logger()

	if !h.acquire(examID) {
		ws.WriteTyped(conn, ws.ErrorFrame("", "This exam is already open in another window."))
		return
	}
	defer h.release(examID)

	out := &outbox{
		frames: make(chan ws.Frame, outboxSize),
		done:   make(chan struct{}),
		log:    wsLog,
	}
	written := make(chan struct{})
	go func() {
		defer close(written)
		out.run(conn)
	}()
	defer func() {
		out.close()
		<-written
	}()

	opts := h.opts
	opts.Scheduler = nil
	opts.Log = wsLog
	opts.Notify = func(e exam.Event) { out.send(ws.FromExamEvent(e)) }
	attempt := exam.New(examID, h.backend, opts)
	defer attempt.Close()

	if err := attempt.Load(c.Request.Context()); err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) && gwErr.Redirect() != "" {
			out.send(ws.Frame{Event: ws.EventNavigate, Target: gwErr.Redirect()})
		}
		return
	}
	wsLog.Info().Msg("Candidate connected")

	for {
		var req ws.Request
		if err := ws.ReadJSON(conn, &req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.dispatch(attempt, req, out)
	}
}

func (h *WSHandler) dispatch(attempt *exam.Session, req ws.Request, out *outbox) {
	switch req.Action {
	case ws.ActionAnswer:
		if req.Index == nil {
			out.send(ws.ErrorFrame(req.Action, "index is required"))
			return
		}
		if err := attempt.Answer(*req.Index, req.Value); err != nil {
			out.send(ws.ErrorFrame(req.Action, err.Error()))
			return
		}
		snap := attempt.Snapshot()
		out.send(ws.Frame{Event: ws.EventAck, Action: req.Action, Snapshot: &snap})
	case ws.ActionSubmit:
		h.submit(attempt, out)
	case ws.ActionVisibility:
		attempt.Visibility(req.Hidden)
	case ws.ActionBlur:
		attempt.Blur()
	case ws.ActionFocus:
		attempt.Focus()
	case ws.ActionDismissWarning:
		attempt.DismissWarning()
	case ws.ActionLeave:
		attempt.LeaveNow()
	case ws.ActionPing:
		out.send(ws.Frame{Event: ws.EventPong})
	default:
		out.send(ws.ErrorFrame(req.Action, "unknown action: "+string(req.Action)))
	}
}

// submit is detached from the connection so a dropped socket does not
// abort a submission already on the wire.
func (h *WSHandler) submit(attempt *exam.Session, out *outbox) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.SubmitTimeout)
	defer cancel()

	err := attempt.Submit(ctx)
	switch {
	case err == nil:
		out.send(ws.Frame{Event: ws.EventAck, Action: ws.ActionSubmit})
	case errors.Is(err, exam.ErrIncomplete):
		out.send(ws.ErrorFrame(ws.ActionSubmit, "Please answer all questions before submitting."))
	case errors.Is(err, exam.ErrDisqualified), errors.Is(err, exam.ErrNotInProgress):
		out.send(ws.ErrorFrame(ws.ActionSubmit, err.Error()))
	default:
		// the attempt already reported the failure as an error event
	}
}
