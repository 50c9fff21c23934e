package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func echoPlayer(c *fiber.Ctx) error {
	id, _ := c.Locals(PlayerIDKey).(string)
	return c.SendString(id)
}

func TestEnsurePlayerID(t *testing.T) {
	app := fiber.New()
	app.Get("/who", EnsurePlayerID(), echoPlayer)

	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"header", "/who", "alice", http.StatusOK, "alice"},
		{"query", "/who?playerId=bob", "", http.StatusOK, "bob"},
		{"header wins", "/who?playerId=bob", "alice", http.StatusOK, "alice"},
		{"missing", "/who", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Player-ID", tt.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantBody == "" {
				return
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.wantBody {
				t.Errorf("player = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestWebSocketUpgradeRequiresUpgrade(t *testing.T) {
	app := fiber.New()
	app.Get("/ws/game/:gameId", EnsurePlayerID(), WebSocketUpgrade(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws/game/g1?playerId=alice", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("plain GET status = %d, want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}
}
