package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"infographify/internal/batch"
	"infographify/internal/gateway/repository/runstore"
	"infographify/internal/slide"
)

const (
	runWSWriteWait = 10 * time.Second
	runWSPongWait  = 60 * time.Second
	runWSPingEvery = (runWSPongWait * 9) / 10
)

var runWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type runWSInbound struct {
	Type     string `json:"type"`
	Position *int   `json:"position,omitempty"`
}

type runWSOutbound struct {
	Type     string             `json:"type"`
	RunID    string             `json:"runId,omitempty"`
	Snapshot *runstore.Snapshot `json:"snapshot,omitempty"`
	Seq      int64              `json:"seq,omitempty"`
	Position *int               `json:"position,omitempty"`
	Record   *slide.Record      `json:"record,omitempty"`
	Progress *slide.Progress    `json:"progress,omitempty"`
	Code     string             `json:"code,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// HandleStream upgrades to a websocket that first sends the run snapshot and
// then every slide patch. Clients may send "ping", "cancel" and
// "regenerate" with a position.
func (h *RunHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("id"))
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snap, updates, err := h.svc.Subscribe(ctx, runID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	conn, err := runWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(runWSPongWait)); err != nil {
		h.log.Warn().Err(err).Str("run_id", runID).Msg("run ws set read deadline")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(runWSPongWait))
	})

	writeCh := make(chan runWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(runWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(runWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(runWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushRunWS(writeCh, runWSOutbound{Type: "snapshot", RunID: runID, Snapshot: &snap})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				pushRunWS(writeCh, updateMessage(runID, u))
			}
		}
	}()

	for {
		var in runWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch msgType := strings.ToLower(strings.TrimSpace(in.Type)); msgType {
		case "ping":
			pushRunWS(writeCh, runWSOutbound{Type: "pong"})
		case "cancel":
			if _, err := h.svc.Cancel(runID); err != nil {
				pushRunWS(writeCh, wsError(err))
				continue
			}
			pushRunWS(writeCh, runWSOutbound{Type: "cancel_ack", RunID: runID})
		case "regenerate":
			if in.Position == nil {
				pushRunWS(writeCh, runWSOutbound{Type: "error", Code: "invalid_argument", Message: "position is required"})
				continue
			}
			pos := *in.Position
			// Progress arrives through the update stream; only refusals and
			// credential errors need their own message.
			go func() {
				if _, err := h.svc.Regenerate(ctx, runID, pos); err != nil {
					if status, _ := errorResponse(err); status != http.StatusInternalServerError {
						pushRunWS(writeCh, wsError(err))
					}
				}
			}()
		case "":
			pushRunWS(writeCh, runWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushRunWS(writeCh, runWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + msgType})
		}
	}
}

func updateMessage(runID string, u batch.Update) runWSOutbound {
	pos, rec, progress := u.Position, u.Record, u.Progress
	return runWSOutbound{
		Type:     "update",
		RunID:    runID,
		Seq:      u.Seq,
		Position: &pos,
		Record:   &rec,
		Progress: &progress,
	}
}

func wsError(err error) runWSOutbound {
	_, body := errorResponse(err)
	return runWSOutbound{Type: "error", Code: body.Code, Message: body.Message}
}

// pushRunWS enqueues out, dropping the oldest queued message when the
// writer falls behind.
func pushRunWS(writeCh chan runWSOutbound, out runWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
