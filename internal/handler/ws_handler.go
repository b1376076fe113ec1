package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/validator"
	ws "github.com/stemsi/exstem-cbt/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
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

// WSHandler streams the session over a WebSocket. Clients send actions and
// receive the resulting view; every other change (another client, the timer
// auto-submit) is pushed as it happens.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/session/stream
func (h *WSHandler) SessionStream(c *gin.Context) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("remote", c.ClientIP()).Logger()
	wsLog.Info().Msg("Client connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals, unsubscribe := h.sessionService.Subscribe()
	defer unsubscribe()
	go h.push(ctx, conn, signals)

	if view, err := h.sessionService.View(ctx); err == nil {
		conn.WriteEvent(ws.EventState, view)
	}

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.dispatch(ctx, conn, wsLog, &msg)
	}
}

// push forwards change signals as fresh views until ctx ends.
func (h *WSHandler) push(ctx context.Context, conn *ws.Conn, signals <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			view, err := h.sessionService.View(ctx)
			if err != nil {
				continue
			}
			if err := conn.WriteEvent(ws.EventState, view); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, conn *ws.Conn, wsLog zerolog.Logger, msg *ws.RequestPayload) {
	var (
		view model.SessionView
		err  error
	)

	switch msg.Action {
	case ws.ActionPing:
		conn.WriteEvent(ws.EventPong, nil)
		return
	case ws.ActionAnswer:
		req := model.RecordAnswerRequest{QuestionID: msg.QuestionID, ChoiceIndex: msg.ChoiceIndex}
		if fields := validator.Struct(&req); fields != nil {
			conn.WriteError(string(response.ErrValidation), response.GetMessage(response.ErrValidation), fields)
			return
		}
		view, err = h.sessionService.RecordAnswer(ctx, req.QuestionID, *req.ChoiceIndex)
	case ws.ActionAdvance:
		view, err = h.sessionService.Advance(ctx)
	case ws.ActionNext:
		view, err = h.sessionService.Next(ctx)
	case ws.ActionRetreat:
		view, err = h.sessionService.Retreat(ctx)
	case ws.ActionSubmit:
		view, err = h.sessionService.Submit(ctx)
	case ws.ActionReset:
		view = h.sessionService.Reset(ctx)
	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		conn.WriteError(string(response.ErrUnknownAction), "unknown action: "+string(msg.Action), nil)
		return
	}

	if err != nil {
		_, code := classify(err)
		conn.WriteError(string(code), response.GetMessage(code), nil)
		return
	}
	conn.WriteEvent(ws.EventState, view)
}
