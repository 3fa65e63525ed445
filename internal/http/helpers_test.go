package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"storebill/internal/config"
	"storebill/internal/domain"
	"storebill/internal/http/handlers"
	applog "storebill/internal/log"
	"storebill/internal/metrics"
	"storebill/internal/repos"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
}

func newTestApp(t *testing.T, opts handlers.AppOptions) *testApp {
	t.Helper()
	cfg := config.Config{
		JWTSecret:  "test-secret",
		JWTTTL:     time.Hour,
		PendingTTL: 15 * time.Minute,
	}
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:", 0)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedAdmin(db, "admin123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	deps := handlers.NewDeps(db, cfg, metrics.New("test"))
	opts.TemplatesDir = "../../web/templates"
	return &testApp{app: handlers.NewApp(deps, opts), db: db, deps: deps}
}

func (ta *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

func (ta *testApp) doJSON(t *testing.T, method, path string, body any, hdr map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp := ta.do(t, req)
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func (ta *testApp) products(t *testing.T) []domain.Product {
	t.Helper()
	var out []domain.Product
	if err := ta.db.Select(&out, `SELECT id, name, cost_price, mrp, unit_type, weight, is_active, created_at, updated_at FROM products ORDER BY name`); err != nil {
		t.Fatal(err)
	}
	return out
}

// invoiceBody is a valid single-line payload for p.
func invoiceBody(p domain.Product, qty int) map[string]any {
	total := p.MRP * float64(qty)
	return map[string]any{
		"items": []map[string]any{{
			"productId": p.ID, "name": p.Name, "quantity": qty, "unitPrice": p.MRP, "total": total,
		}},
		"subtotal":    total,
		"discount":    0,
		"taxAmount":   0,
		"totalAmount": total,
		"paymentMode": "CASH",
	}
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// session is a logged-in browser: token cookie plus a csrf token.
type session struct {
	token string
	csrf  string
}

// anonymous is a browser that has loaded /login and holds only a csrf token.
func (ta *testApp) anonymous(t *testing.T) session {
	t.Helper()
	resp := ta.do(t, httptest.NewRequest("GET", "/login", nil))
	csrfTok := cookieValue(resp, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}
	return session{csrf: csrfTok}
}

func (ta *testApp) login(t *testing.T) session {
	t.Helper()
	return ta.loginAs(t, "admin", "admin123")
}

func (ta *testApp) loginAs(t *testing.T, username, password string) session {
	t.Helper()
	s := ta.anonymous(t)
	resp := ta.do(t, s.post("/login", url.Values{"username": {username}, "password": {password}}))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login %s: want 302, got %d", username, resp.StatusCode)
	}
	s.token = cookieValue(resp, "token")
	if s.token == "" {
		t.Fatal("login did not set token cookie")
	}
	return s
}

func (s session) get(path string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: s.token})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: s.csrf})
	return req
}

func (s session) post(path string, form url.Values) *http.Request {
	form.Set("csrf", s.csrf)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "token", Value: s.token})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: s.csrf})
	return req
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	Err    string         `json:"err"`
	ReqID  string         `json:"req_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuf
	restore := applog.SetOutput(&buf)
	defer restore()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}
