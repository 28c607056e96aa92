package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mhmdnab/chat-app-backend/internal/config"
	"github.com/mhmdnab/chat-app-backend/internal/db"
	"github.com/mhmdnab/chat-app-backend/internal/presence"
	"github.com/mhmdnab/chat-app-backend/internal/ws"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Config{Port: "0", Env: "dev", ClientOrigins: []string{"http://localhost:3000"}}
	reg := presence.NewRegistry()
	return SetupRouter(cfg, gdb, reg, ws.NewHub(reg))
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", w.Code)
	}
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/login", `{"username":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /login = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		User struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	if resp.User.Username != "alice" || resp.SessionID == "" {
		t.Errorf("login response = %+v, want alice with a session id", resp)
	}

	// 幂等：同名再次登录拿到同一个用户。
	w = doJSON(t, r, http.MethodPost, "/login", `{"username":"alice"}`)
	var resp2 struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp2); err != nil {
		t.Fatalf("unmarshal second login response: %v", err)
	}
	if resp2.User.ID != resp.User.ID {
		t.Errorf("second login user id = %d, want %d", resp2.User.ID, resp.User.ID)
	}
}

func TestLogin_MissingUsername(t *testing.T) {
	r := newTestRouter(t)
	for _, body := range []string{`{}`, `{"username":"  "}`, `not json`} {
		w := doJSON(t, r, http.MethodPost, "/login", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST /login with %q = %d, want 400", body, w.Code)
		}
	}
}

func TestCreateRoom(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms", `{"name":"general"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /rooms = %d, want 201, body %s", w.Code, w.Body.String())
	}

	// 重名返回 400，且不产生第二个房间。
	w = doJSON(t, r, http.MethodPost, "/rooms", `{"name":"general"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /rooms duplicate = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/rooms", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /rooms = %d, want 200", w.Code)
	}
	var rooms []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("unmarshal rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "general" {
		t.Errorf("rooms = %v, want exactly [general]", rooms)
	}
}

func TestCreateRoom_MissingName(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/rooms", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /rooms without name = %d, want 400", w.Code)
	}
}

func TestListRoomMessages_InvalidID(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/rooms/abc/messages", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("GET /rooms/abc/messages = %d, want 400", w.Code)
	}
}

func TestListRoomMessages_Empty(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/rooms/1/messages", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /rooms/1/messages = %d, want 200", w.Code)
	}
	var msgs []json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages = %v, want empty list", msgs)
	}
}

func TestListPrivateMessages_Empty(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/private/alice/bob", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /private/alice/bob = %d, want 200", w.Code)
	}
}
