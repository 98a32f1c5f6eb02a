package rest

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/oakmere/adviserdesk/internal/domain"
	"github.com/oakmere/adviserdesk/internal/infra/database"
	"github.com/oakmere/adviserdesk/internal/service"
)

// The broker address is unroutable on purpose: the handler's channel
// discipline must hold whether or not redis is reachable.
func newRealtimeServer() *httptest.Server {
	signal := service.NewSignalService(database.NewRedis("127.0.0.1:0", "", 0))
	h := NewHandler(domain.Config{}, nil, nil, nil, signal)

	e := echo.New()
	h.RegisterRoutes(e)
	return httptest.NewServer(e)
}

func dialRealtime(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return ws
}

func TestRealtimeClientDisconnect(t *testing.T) {
	srv := newRealtimeServer()
	ws := dialRealtime(t, srv)

	if err := ws.WriteJSON(Request{Type: "h"}); err != nil {
		t.Fatalf("failed to write heartbeat: %v", err)
	}
	if err := ws.WriteJSON(Request{Type: "listen", Groups: []string{"g1"}}); err != nil {
		t.Fatalf("failed to write listen: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.Close()

	// srv.Close blocks until the handler has returned; a deadlocked or
	// panicked handler shows up as a timeout here.
	done := make(chan struct{})
	go func() {
		srv.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("realtime handler did not terminate after client disconnect")
	}
}

func TestRealtimeAbruptDisconnect(t *testing.T) {
	srv := newRealtimeServer()
	ws := dialRealtime(t, srv)

	if err := ws.WriteJSON(Request{Type: "listen", Groups: []string{"g1", "g2"}}); err != nil {
		t.Fatalf("failed to write listen: %v", err)
	}

	// No close handshake: drop the connection mid-session.
	ws.UnderlyingConn().Close()

	done := make(chan struct{})
	go func() {
		srv.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("realtime handler did not terminate after dropped connection")
	}
}
