package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/consumer"
	"github.com/fortuna/services/player-stats-service/internal/handlers"
	"github.com/fortuna/services/player-stats-service/internal/hub"
	"github.com/fortuna/services/player-stats-service/internal/ingest"
	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/internal/service"
	"github.com/fortuna/services/player-stats-service/internal/store/memory"
	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/gorilla/websocket"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newLiveServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.NewNop()
	h := hub.NewHub(log)
	go h.Run(ctx)

	store := memory.New()
	ing := ingest.New(store, consumer.NewDispatcher(nil, h, log), log)

	router := handlers.NewRouter(handlers.RouterConfig{
		API:         handlers.NewHandler(service.New(store, nil, 2, log), ing, log),
		WS:          handlers.NewWSHandler(ctx, h, []string{"*"}, log),
		CORSOrigins: []string{"*"},
		Log:         log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, h
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) inboundMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg inboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

// roundTrip sends a heartbeat and waits for its reply, so every message the
// client sent before it has been handled
func roundTrip(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	if err := conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeHeartbeat}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != models.MessageTypeHeartbeat {
		t.Fatalf("got %q, want heartbeat", msg.Type)
	}
}

func postCSV(t *testing.T, server *httptest.Server, source, body string) {
	t.Helper()

	resp, err := http.Post(server.URL+"/api/v1/ingest?source="+source, "text/csv", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest status = %d", resp.StatusCode)
	}
}

func TestWebSocketReceivesIngestEvents(t *testing.T) {
	server, h := newLiveServer(t)
	conn := dial(t, server)
	roundTrip(t, conn)

	if h.GetClientCount() != 1 {
		t.Fatalf("Expected 1 connected client, got %d", h.GetClientCount())
	}

	postCSV(t, server, "week1.csv", boxScores)

	msg := readMessage(t, conn)
	if msg.Type != models.MessageTypeIngest {
		t.Fatalf("type = %q, want %q", msg.Type, models.MessageTypeIngest)
	}

	var event models.IngestEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatal(err)
	}
	if event.Source != "week1.csv" || event.Rows != 2 || len(event.Players) != 2 {
		t.Errorf("event = %+v", event)
	}
}

func TestWebSocketSubscriptionFilter(t *testing.T) {
	server, _ := newLiveServer(t)
	conn := dial(t, server)

	subscribe := models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"players": []string{"Marta Ruiz"}},
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		t.Fatal(err)
	}
	roundTrip(t, conn)

	anaOnly := "PLAYER,POSITION,FTM,FTA,2PM,2PA,3PM,3PA,REB,BLK,AST,STL,TOV\nAna Lopez,PG,1,2,3,4,0,1,5,0,2,1,1\n"
	postCSV(t, server, "ana.csv", anaOnly)

	// the unmatched event is skipped, so the next message is the heartbeat reply
	roundTrip(t, conn)

	postCSV(t, server, "week1.csv", boxScores)
	msg := readMessage(t, conn)
	if msg.Type != models.MessageTypeIngest {
		t.Fatalf("type = %q, want %q", msg.Type, models.MessageTypeIngest)
	}
}

func TestWebSocketMetrics(t *testing.T) {
	server, _ := newLiveServer(t)
	dial(t, server)

	resp, err := http.Get(server.URL + "/ws/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var metrics map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&metrics); err != nil {
		t.Fatal(err)
	}
	if _, ok := metrics["active_clients"]; !ok {
		t.Errorf("metrics = %v, missing active_clients", metrics)
	}
}
