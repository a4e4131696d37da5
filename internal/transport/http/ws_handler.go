package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"quizflow-service/internal/app"
	"quizflow-service/internal/ctxlog"
)

// WSHandler drives a single quiz run over a websocket.
type WSHandler struct {
	service  *app.FlowService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.FlowService) *WSHandler {
	return &WSHandler{
		service: service,
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

type answerPayload struct {
	Value any `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and either starts a run on versionId or
// resumes runId. Every state change is pushed as "node", "completed" or
// "deadEnd"; failures are pushed as "error" and keep the socket open.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	versionID := query.Get("versionId")
	runID := query.Get("runId")
	if versionID == "" && runID == "" {
		http.Error(w, "missing versionId or runId", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	logger := ctxlog.FromContext(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	state, err := h.open(ctx, versionID, runID, query.Get("userId"), query.Get("email"))
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	logger = logger.With("run", state.Run.ID)

	out := outbox{
		send: make(chan outboundMessage[any], 16),
		done: make(chan struct{}),
	}

	go func() {
		defer close(out.done)
		for msg := range out.send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write failed", "error", err)
				return
			}
		}
	}()

	ok := out.push(stateMessage(state))
	for ok {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				ok = out.push(errorMessage("invalid answer payload"))
				continue
			}
			next, err := h.service.SubmitAnswer(ctx, state.Run.ID, payload.Value)
			if err != nil {
				ok = out.push(errorMessage(err.Error()))
				continue
			}
			state = next
			ok = out.push(stateMessage(state))
		case "state":
			current, err := h.service.GetRunState(ctx, state.Run.ID)
			if err != nil {
				ok = out.push(errorMessage(err.Error()))
				continue
			}
			state = current
			ok = out.push(stateMessage(state))
		default:
			ok = out.push(errorMessage("unsupported message type"))
		}
	}

	close(out.send)
	<-out.done
}

// outbox feeds the single writer goroutine. done closes when the writer
// stops, after which push reports false instead of blocking.
type outbox struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func (o outbox) push(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

func (h *WSHandler) open(ctx context.Context, versionID, runID, userID, email string) (app.RunState, error) {
	if runID != "" {
		return h.service.GetRunState(ctx, runID)
	}
	return h.service.StartRun(ctx, versionID, userID, email)
}

func stateMessage(state app.RunState) outboundMessage[any] {
	switch {
	case state.Completed:
		return outboundMessage[any]{Type: "completed", Payload: state}
	case state.DeadEnd:
		return outboundMessage[any]{Type: "deadEnd", Payload: state}
	}
	return outboundMessage[any]{Type: "node", Payload: state}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
