package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/roomcoord/internal/adapters/auth"
	"github.com/dkeye/roomcoord/internal/adapters/signal"
	"github.com/dkeye/roomcoord/internal/app"
	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/config"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/dkeye/roomcoord/internal/store/memory"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testSecret = "router-test"

func bearer(t *testing.T, user string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().Claim("id", user).Claim("name", user).Claim("role", "student").
		Claim("avatar", user+".png").Expiration(time.Now().Add(time.Hour)).Build()
	if err != nil {
		t.Fatal(err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	if err != nil {
		t.Fatal(err)
	}
	return string(signed)
}

func newRouter(t *testing.T) (*gin.Engine, *memory.Rooms) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rooms := memory.NewRooms()
	rooms.Put(domain.Room{ID: "r", OwnerID: "u1", Participants: []domain.UserID{"u1"}})
	ctl := &signal.SignalWSController{
		Orch: &orch.Orchestrator{
			Registry: app.NewRegistry(),
			Presence: app.NewPresenceRegistry(),
			Screens:  app.NewScreenArbitrator(rooms),
			Rooms:    rooms,
			Messages: memory.NewMessages(),
		},
		Gate:       &auth.Gate{Verifier: auth.NewVerifier(testSecret), Users: memory.NewUsers()},
		Policy:     app.SimplePolicy{},
		Limiter:    signal.NewRoomRateLimiter(50, time.Minute),
		SendBuffer: 32,
		ReadLimit:  1 << 15,
		PingPeriod: time.Minute,
	}
	cfg := &config.Config{Mode: "test", Secret: "cookie-secret"}
	return SetupRouter(context.Background(), cfg, ctl), rooms
}

func do(r http.Handler, method, path, token string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicEndpoints(t *testing.T) {
	r, _ := newRouter(t)
	for _, path := range []string{"/healthz", "/api/rtc/config", "/metrics"} {
		if w := do(r, http.MethodGet, path, "", ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
	w := do(r, http.MethodGet, "/api/rtc/config", "", "")
	if !strings.Contains(w.Body.String(), "stun:") {
		t.Errorf("rtc config = %s", w.Body.String())
	}
}

func TestRoomSnapshots(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"no credential", "/api/rooms/r/presence", "", http.StatusUnauthorized},
		{"bad credential", "/api/rooms/r/presence", "junk", http.StatusUnauthorized},
		{"member presence", "/api/rooms/r/presence", bearer(t, "u1"), http.StatusOK},
		{"member screen", "/api/rooms/r/screen", bearer(t, "u1"), http.StatusOK},
		{"outsider", "/api/rooms/r/presence", bearer(t, "u2"), http.StatusForbidden},
		{"missing room", "/api/rooms/zzz/screen", bearer(t, "u1"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, tt.token, "")
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w := do(r, http.MethodGet, "/api/rooms/r/screen", bearer(t, "u1"), "")
	var st domain.ScreenState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil || st.RoomID != "r" || st.IsActive {
		t.Errorf("screen = %+v, %v", st, err)
	}
}

func TestCreateRoom(t *testing.T) {
	r, rooms := newRouter(t)
	if w := do(r, http.MethodPost, "/api/rooms", bearer(t, "u5"), `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("nameless room = %d", w.Code)
	}
	w := do(r, http.MethodPost, "/api/rooms", bearer(t, "u5"), `{"name":"study group"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var room domain.Room
	if err := json.Unmarshal(w.Body.Bytes(), &room); err != nil {
		t.Fatal(err)
	}
	stored, err := rooms.FindByID(context.Background(), room.ID)
	if err != nil || stored.OwnerID != "u5" || !stored.HasParticipant("u5") {
		t.Errorf("stored = %+v, %v", stored, err)
	}
}

func TestJoinRoomThenSocketJoin(t *testing.T) {
	r, rooms := newRouter(t)
	u2 := bearer(t, "u2")

	if w := do(r, http.MethodPost, "/api/rooms/zzz/join", u2, ""); w.Code != http.StatusNotFound {
		t.Errorf("join missing room = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/rooms/r/join", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous join = %d", w.Code)
	}
	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/api/rooms/r/join", u2, "")
		if w.Code != http.StatusOK {
			t.Fatalf("join #%d = %d %s", i+1, w.Code, w.Body.String())
		}
	}
	stored, err := rooms.FindByID(context.Background(), "r")
	if err != nil || len(stored.Participants) != 2 || !stored.HasParticipant("u2") {
		t.Fatalf("stored = %+v, %v", stored, err)
	}

	srv := httptest.NewServer(r)
	defer srv.Close()
	h := http.Header{}
	h.Set("Authorization", "Bearer "+u2)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws", h)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteJSON(map[string]any{"type": "room:join", "id": "j", "payload": "r"}); err != nil {
		t.Fatal(err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var ack struct {
			Type   string `json:"type"`
			Topic  string `json:"topic"`
			Status string `json:"status"`
			Code   string `json:"code"`
		}
		if err := ws.ReadJSON(&ack); err != nil {
			t.Fatalf("read: %v", err)
		}
		if ack.Type != "ack" || ack.Topic != "room:join" {
			continue
		}
		if ack.Status != "ok" {
			t.Fatalf("room:join ack = %+v", ack)
		}
		break
	}
}

func TestRoomMessages(t *testing.T) {
	r, _ := newRouter(t)
	u1 := bearer(t, "u1")

	w := do(r, http.MethodGet, "/api/rooms/r/messages?limit=10", u1, "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty history = %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/api/rooms/r/messages?before=2024-05-01T12:00:00Z", u1, ""); w.Code != http.StatusOK {
		t.Errorf("history before = %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/api/rooms/r/messages?before=yesterday", u1, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad before = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/rooms/r/messages", bearer(t, "u2"), ""); w.Code != http.StatusForbidden {
		t.Errorf("outsider history = %d", w.Code)
	}
}

func TestSessionLogin(t *testing.T) {
	r, _ := newRouter(t)
	w := do(r, http.MethodPost, "/api/session", "", `{"token":"`+bearer(t, "u1")+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}
	if w := do(r, http.MethodGet, "/api/rooms/r/presence", "", "", cookies...); w.Code != http.StatusOK {
		t.Errorf("presence via session = %d", w.Code)
	}

	if w := do(r, http.MethodPost, "/api/session", "", `{"token":"junk"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", w.Code)
	}
}
