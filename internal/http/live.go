package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-microsite/internal/render"
	"github.com/goliatone/go-microsite/pkg/interfaces"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

// liveMessage is pushed to browsers after each publish of the live copy.
type liveMessage struct {
	Action  string `json:"action"`
	Version uint64 `json:"version"`
	PageID  string `json:"pageId,omitempty"`
}

// liveClientMessage is what browsers may send: a page selection.
type liveClientMessage struct {
	Action string `json:"action"`
	PageID string `json:"pageId"`
}

type liveConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *liveConn) send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return c.ws.WriteJSON(msg)
}

func (c *liveConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait))
}

// liveHub fans live copy updates out to connected websockets. Page
// selections do not bump the version and are not broadcast.
type liveHub struct {
	live   *render.LiveState
	logger interfaces.Logger

	mu          sync.Mutex
	conns       map[*liveConn]struct{}
	lastVersion uint64
	cancel      func()
	closed      bool
}

func newLiveHub(live *render.LiveState, logger interfaces.Logger) *liveHub {
	h := &liveHub{
		live:        live,
		logger:      logger,
		conns:       map[*liveConn]struct{}{},
		lastVersion: live.Version(),
	}
	h.cancel = live.Subscribe(h.broadcast)
	return h
}

func (h *liveHub) add(conn *liveConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *liveHub) remove(conn *liveConn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.ws.Close()
	}
}

func (h *liveHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *liveHub) broadcast(update render.Update) {
	h.mu.Lock()
	if update.Version == h.lastVersion {
		h.mu.Unlock()
		return
	}
	h.lastVersion = update.Version
	conns := make([]*liveConn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	msg := liveMessage{Action: "live", Version: update.Version, PageID: update.PageID}
	for _, conn := range conns {
		if err := conn.send(msg); err != nil {
			h.logger.Debug("http.live.send_failed", "error", err)
			h.remove(conn)
		}
	}
	h.logger.Debug("http.live.pushed", "version", update.Version, "clients", len(conns))
}

func (h *liveHub) close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := h.conns
	h.conns = map[*liveConn]struct{}{}
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for conn := range conns {
		_ = conn.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
			time.Now().Add(time.Second))
		_ = conn.ws.Close()
	}
}

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (api *API) liveHub() *liveHub {
	if api.hub == nil {
		api.hub = newLiveHub(api.live, api.logger)
	}
	return api.hub
}

func (api *API) handleLiveSocket(w http.ResponseWriter, r *http.Request) {
	hub := api.hub
	if hub == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	ws, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		api.logger.Warn("http.live.upgrade_failed", "error", err)
		return
	}
	conn := &liveConn{ws: ws}
	if !hub.add(conn) {
		_ = ws.Close()
		return
	}
	api.logger.Debug("http.live.connected", "clients", hub.count())

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(livePingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					hub.remove(conn)
					return
				}
			}
		}
	}()

	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(livePongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		var msg liveClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Action == "selectPage" && msg.PageID != "" {
			api.live.SelectPage(msg.PageID)
		}
	}
	close(done)
	hub.remove(conn)
	api.logger.Debug("http.live.disconnected", "clients", hub.count())
}
