package webservice

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler upgrades to a websocket and sends every published calculation result
// as a JSON text message until the client goes away.
func (app *App) StreamHandler(w http.ResponseWriter, r *http.Request) {
	pid := uuid.New()
	results := app.Publisher.Subscribe(pid, msg.Result)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Publisher.Unsubscribe(pid)
		app.logger().Warn("websocket upgrade", zap.Error(err))
		return
	}
	app.logger().Debug("stream opened", zap.String("pid", pid.String()))

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, results, done)

	app.Publisher.Unsubscribe(pid)
	conn.Close()
	app.logger().Debug("stream closed", zap.String("pid", pid.String()))
}

// readPump discards client messages and closes done when the connection ends.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, results <-chan msg.Msg, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case m, ok := <-results:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(m.Payload()); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
