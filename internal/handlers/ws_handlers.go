package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"raffle/internal/models"
	"raffle/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// StreamDraw upgrades to a websocket and pushes the session's draw events.
// The first frame is the current state so a late page catches up.
func (h *HTTPHandler) StreamDraw(c *gin.Context) {
	sess := h.session(c)
	tenantID := c.GetString(tenantKey)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warningf("ws upgrade: %v", err)
		return
	}

	sub := sess.Hub().Subscribe()
	state := sess.View().Draw
	initial := models.DrawEvent{
		Type:      models.EventPhase,
		Phase:     state.Phase,
		Intensity: state.Intensity,
		Winners:   state.Winners,
		HistoryID: state.HistoryID,
	}

	go h.writePump(ws, sub, initial)
	go h.readPump(ws, sub, tenantID)
}

// writePump owns the connection's writes. It ends when the subscription
// closes or a write fails.
func (h *HTTPHandler) writePump(ws *websocket.Conn, sub *services.Subscription, initial models.DrawEvent) {
	ticker := time.NewTicker(h.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		sub.Cancel()
		_ = ws.Close()
	}()

	if err := writeEvent(ws, initial); err != nil {
		return
	}
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := writeEvent(ws, ev); err != nil {
				logger.Warningf("ws write: %v", err)
				return
			}
		case <-ticker.C:
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
// The stream is one-way; anything the client sends is ignored.
func (h *HTTPHandler) readPump(ws *websocket.Conn, sub *services.Subscription, tenantID string) {
	defer sub.Cancel()

	pongWait := h.opts.PingPeriod * 10 / 9
	ws.SetReadLimit(h.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warningf("ws read tenant=%s: %v", tenantID, err)
			}
			return
		}
	}
}

func writeEvent(ws *websocket.Conn, ev models.DrawEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}

// sameOrigin rejects cross-site websocket upgrades.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
