package api

import (
	"net/http"

	"leadflow/internal/ws"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard and API are served from different origins in dev.
		return true
	},
}

// wsHandler upgrades the connection and registers it with the hub. Clients
// subscribe to "leads", "lead:<id>" or "import:<jobId>" channels to follow
// funnel changes and import progress live.
func (d Dependencies) wsHandler(w http.ResponseWriter, r *http.Request) {
	passcode := r.URL.Query().Get("passcode")
	if passcode == "" {
		passcode = r.Header.Get("X-Admin-Passcode")
	}
	if !d.Auth.PasscodeValid(passcode) {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized: invalid passcode", d.Log)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	wsConn := ws.NewConn(conn, d.Hub)
	d.Hub.Register(wsConn)

	go wsConn.WritePump()
	go wsConn.ReadPump()
}
