package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	applog "storebill/internal/log"
)

func TestRecordShape(t *testing.T) {
	var buf bytes.Buffer
	restore := applog.SetOutput(&buf)
	defer restore()

	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("requestid", "rid-1")
		c.Locals("userID", "u-1")
		applog.Audit(c, "thing.done", map[string]any{"n": 1})
		applog.Error(c, "thing.fail", errors.New("kaput"), nil)
		return c.SendStatus(fiber.StatusNoContent)
	})
	if _, err := app.Test(httptest.NewRequest("GET", "/x", nil)); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 records, got %d: %s", len(lines), buf.String())
	}
	var audit, fail map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &audit); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &fail); err != nil {
		t.Fatal(err)
	}
	if audit["action"] != "thing.done" || audit["kind"] != "audit" || audit["req_id"] != "rid-1" ||
		audit["user_id"] != "u-1" || audit["path"] != "/x" || audit["method"] != "GET" {
		t.Fatalf("audit record: %v", audit)
	}
	if fields, _ := audit["fields"].(map[string]any); fields["n"] != float64(1) {
		t.Fatalf("fields not kept: %v", audit["fields"])
	}
	if fail["level"] != "error" || fail["err"] != "kaput" {
		t.Fatalf("error record: %v", fail)
	}
}

func TestBackgroundLogger(t *testing.T) {
	var buf bytes.Buffer
	restore := applog.SetOutput(&buf)
	defer restore()

	applog.L().Info("job.tick")
	if !strings.Contains(buf.String(), `"action":"job.tick"`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
