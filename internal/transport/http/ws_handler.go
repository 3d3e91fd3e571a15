package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"daily-problem-service/internal/app"
	"github.com/gorilla/websocket"
)

// WSHandler pushes the active problem and every rotation to connected clients.
type WSHandler struct {
	service  *app.ProblemService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ProblemService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type problemPayload struct {
	Index       int    `json:"index"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// ServeWS upgrades the request and streams "problem" and "rotation" messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "error", err)
				// Closing unblocks the read loop below.
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case rotation, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "rotation", Payload: rotation}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if enqueue(send, writerDone, h.problemMessage(r)) {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			msg := outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			if inbound.Type == "problem" {
				msg = h.problemMessage(r)
			}
			if !enqueue(send, writerDone, msg) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer and reports false once the writer has exited.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func (h *WSHandler) problemMessage(r *http.Request) outboundMessage[any] {
	problem, err := h.service.CurrentProblem(r.Context())
	if err != nil {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msgProblemUnavailable}}
	}
	return outboundMessage[any]{Type: "problem", Payload: problemPayload{
		Index:       problem.Index,
		Image:       problem.Image,
		Description: problem.Description,
	}}
}
