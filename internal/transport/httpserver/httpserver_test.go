package httpserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mess-manager-go/internal/auth"
	"mess-manager-go/internal/config"
	messdomain "mess-manager-go/internal/domain/mess"
	userdomain "mess-manager-go/internal/domain/user"
	"mess-manager-go/internal/repository/inmemory"
	"mess-manager-go/internal/transport/httpserver"
	"mess-manager-go/internal/transport/httpserver/handler"
	"mess-manager-go/pkg/logger"
)

type testEnv struct {
	server *httptest.Server
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	log := logger.New(testWriter{t}, slog.LevelError, "text")
	tokens := auth.NewJWTManager("test-secret", time.Hour)

	handlers := handler.New(
		messdomain.NewService(inmemory.NewMessRepository()),
		userdomain.NewService(inmemory.NewUserRepository()),
		tokens,
		log,
	)

	cfg := config.Config{HTTPPort: "0", CORSOrigins: []string{"http://localhost:5173"}}
	router := httpserver.NewRouter(cfg, handlers, tokens)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server}
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (e *testEnv) register(t *testing.T, email, name string) (token, userID string) {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    email,
		"name":     name,
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %v", email, resp.StatusCode, body)
	}

	token, _ = body["token"].(string)
	user, _ := body["user"].(map[string]interface{})
	userID, _ = user["id"].(string)
	if token == "" || userID == "" {
		t.Fatalf("register %s: missing token or user id in %v", email, body)
	}
	return token, userID
}

func (e *testEnv) createMess(t *testing.T, token, name string) string {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/v1/mess/create", token, map[string]interface{}{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create mess: status %d, body %v", resp.StatusCode, body)
	}
	messID, _ := body["messId"].(string)
	if messID == "" {
		t.Fatalf("create mess: missing messId in %v", body)
	}
	return messID
}

func TestAuthRequired(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/mess/create", "", map[string]interface{}{"name": "X"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d (%v)", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodPost, "/api/v1/mess/create", "not-a-token", map[string]interface{}{"name": "X"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d (%v)", resp.StatusCode, body)
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	env := setupServer(t)
	env.register(t, "ada@example.com", "Ada")

	resp, body := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d, body %v", resp.StatusCode, body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("login: missing token in %v", body)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("login with wrong password: expected 403, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "ada@example.com",
		"name":     "Ada Again",
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", resp.StatusCode)
	}
}

func TestMessLifecycle(t *testing.T) {
	env := setupServer(t)

	adminToken, adminID := env.register(t, "admin@example.com", "Admin")
	memberToken, memberID := env.register(t, "member@example.com", "Member")

	messID := env.createMess(t, adminToken, "Hostel 7")

	// Creator is admin and sees the join key in the details document.
	resp, details := env.do(t, http.MethodPost, "/api/v1/mess/details", adminToken, map[string]interface{}{"messId": messID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("details: status %d, body %v", resp.StatusCode, details)
	}
	if got, _ := details["adminUid"].(string); got != adminID {
		t.Fatalf("adminUid = %q, want %q", got, adminID)
	}
	joinKey, _ := details["joinKey"].(string)
	if len(joinKey) != 6 {
		t.Fatalf("joinKey = %q, want 6 digits", joinKey)
	}

	// Outsiders cannot read the document.
	resp, _ = env.do(t, http.MethodPost, "/api/v1/mess/details", memberToken, map[string]interface{}{"messId": messID})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("details as non-member: expected 403, got %d", resp.StatusCode)
	}

	// Wrong join key is rejected; the right one admits the member.
	resp, _ = env.do(t, http.MethodPost, "/api/v1/mess/join", memberToken, map[string]interface{}{
		"messId": messID, "joinKey": "000000",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("join with wrong key: expected 403, got %d", resp.StatusCode)
	}
	resp, body := env.do(t, http.MethodPost, "/api/v1/mess/join", memberToken, map[string]interface{}{
		"messId": messID, "joinKey": joinKey, "defaultDeposit": 200,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: status %d, body %v", resp.StatusCode, body)
	}

	// Admin marks meals (string count coerced), posts expenses, adds a deposit.
	resp, body = env.do(t, http.MethodPost, "/api/v1/mess/meal", adminToken, map[string]interface{}{
		"messId": messID, "memberUid": memberID, "dateKey": "2026-09-01_L", "newCount": "2",
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("meal: status %d, body %v", resp.StatusCode, body)
	}
	resp, body = env.do(t, http.MethodPost, "/api/v1/mess/expense", adminToken, map[string]interface{}{
		"messId": messID,
		"newExpenses": []map[string]interface{}{
			{"description": "Rice", "amount": 120.5},
			{"description": "Lentils", "amount": 79.5},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expense: status %d, body %v", resp.StatusCode, body)
	}
	if expenses, _ := body["expenses"].([]interface{}); len(expenses) != 2 {
		t.Fatalf("expense: expected 2 created, got %v", body)
	}
	resp, body = env.do(t, http.MethodPost, "/api/v1/mess/deposit", adminToken, map[string]interface{}{
		"messId": messID, "memberUid": memberID, "depositAmount": 300,
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("deposit: status %d, body %v", resp.StatusCode, body)
	}

	// Members see the applied state.
	resp, details = env.do(t, http.MethodPost, "/api/v1/mess/details", memberToken, map[string]interface{}{"messId": messID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("details after mutations: status %d, body %v", resp.StatusCode, details)
	}
	members, _ := details["members"].(map[string]interface{})
	entry, _ := members[memberID].(map[string]interface{})
	if entry == nil {
		t.Fatalf("member %s missing from document %v", memberID, details)
	}
	if got, _ := entry["deposit"].(float64); got != 500 {
		t.Fatalf("deposit = %v, want 500", entry["deposit"])
	}
	meals, _ := entry["meals"].(map[string]interface{})
	if got, _ := meals["2026-09-01_L"].(float64); got != 2 {
		t.Fatalf("meal count = %v, want 2", meals["2026-09-01_L"])
	}
}

func TestMutationsRequireAdmin(t *testing.T) {
	env := setupServer(t)

	adminToken, _ := env.register(t, "admin@example.com", "Admin")
	memberToken, memberID := env.register(t, "member@example.com", "Member")

	messID := env.createMess(t, adminToken, "Hostel 7")
	_, details := env.do(t, http.MethodPost, "/api/v1/mess/details", adminToken, map[string]interface{}{"messId": messID})
	joinKey, _ := details["joinKey"].(string)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/mess/join", memberToken, map[string]interface{}{
		"messId": messID, "joinKey": joinKey,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: status %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/mess/meal", memberToken, map[string]interface{}{
		"messId": messID, "memberUid": memberID, "dateKey": "2026-09-01_B", "newCount": 1,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("meal as non-admin: expected 403, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/mess/expense", memberToken, map[string]interface{}{
		"messId":      messID,
		"newExpenses": []map[string]interface{}{{"description": "Rice", "amount": 10}},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expense as non-admin: expected 403, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/mess/deposit", memberToken, map[string]interface{}{
		"messId": messID, "memberUid": memberID, "depositAmount": 100,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("deposit as non-admin: expected 403, got %d", resp.StatusCode)
	}
}

func TestBodyUserIDMustMatchToken(t *testing.T) {
	env := setupServer(t)

	token, _ := env.register(t, "ada@example.com", "Ada")

	resp, body := env.do(t, http.MethodPost, "/api/v1/mess/create", token, map[string]interface{}{
		"name": "Hostel 7", "userId": "someone-else",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 on userId mismatch, got %d (%v)", resp.StatusCode, body)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	env := setupServer(t)

	adminToken, adminID := env.register(t, "admin@example.com", "Admin")
	messID := env.createMess(t, adminToken, "Hostel 7")

	now := time.Now()
	dateKey := fmt.Sprintf("%04d-%02d-%02d_D", now.Year(), int(now.Month()), now.Day())
	resp, _ := env.do(t, http.MethodPost, "/api/v1/mess/meal", adminToken, map[string]interface{}{
		"messId": messID, "memberUid": adminID, "dateKey": dateKey, "newCount": 4,
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("meal: status %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/v1/mess/expense", adminToken, map[string]interface{}{
		"messId":      messID,
		"newExpenses": []map[string]interface{}{{"description": "Gas", "amount": 100}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expense: status %d", resp.StatusCode)
	}

	path := fmt.Sprintf("/api/v1/mess/summary?messId=%s&year=%d&month=%d", messID, now.Year(), int(now.Month()))
	resp, summary := env.do(t, http.MethodGet, path, adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d, body %v", resp.StatusCode, summary)
	}
	if got, _ := summary["totalMeals"].(float64); got != 4 {
		t.Fatalf("totalMeals = %v, want 4", summary["totalMeals"])
	}
	if got, _ := summary["ratePerMeal"].(string); got != "25.00" {
		t.Fatalf("ratePerMeal = %v, want \"25.00\"", summary["ratePerMeal"])
	}

	resp, _ = env.do(t, http.MethodGet, "/api/v1/mess/summary?messId=ZZZZZZZZ", adminToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("summary for unknown mess: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, path+"&tz=Not/AZone", adminToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("summary with bad tz: expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status %d", resp.StatusCode)
	}
	if got, _ := body["status"].(string); got != "ok" {
		t.Fatalf("health body = %v", body)
	}

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: status %d", resp.StatusCode)
	}
}
