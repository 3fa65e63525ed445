package handlers_test

import (
	"net/http"
	"testing"

	"storebill/internal/http/handlers"
)

func TestAPI_ProductsCRUD(t *testing.T) {
	ta := newTestApp(t, handlers.AppOptions{})

	resp, out := ta.doJSON(t, "POST", "/api/products", map[string]any{
		"name": "Ragi Malt", "costPrice": 80, "mrp": 99, "unitType": "GRAM", "weight": 250,
	}, nil)
	if resp.StatusCode != http.StatusCreated || out["success"] != true {
		t.Fatalf("create: %d %v", resp.StatusCode, out)
	}
	data, _ := out["data"].(map[string]any)
	id, _ := data["id"].(string)

	resp, out = ta.doJSON(t, "PUT", "/api/products/"+id, map[string]any{"mrp": 120}, nil)
	if resp.StatusCode != http.StatusOK || out["success"] != true {
		t.Fatalf("update: %d %v", resp.StatusCode, out)
	}
	_, got := ta.doJSON(t, "GET", "/api/products/"+id, nil, nil)
	if got["mrp"] != float64(120) || got["name"] != "Ragi Malt" {
		t.Fatalf("after update: %v", got)
	}

	_, list := ta.doJSON(t, "GET", "/api/products?search=ragi", nil, nil)
	meta, _ := list["metadata"].(map[string]any)
	if meta["total"] != float64(1) {
		t.Fatalf("search: %v", meta)
	}

	resp, _ = ta.doJSON(t, "DELETE", "/api/products/"+id, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	_, list = ta.doJSON(t, "GET", "/api/products?search=ragi", nil, nil)
	meta, _ = list["metadata"].(map[string]any)
	if meta["total"] != float64(0) {
		t.Fatalf("deactivated product still listed: %v", meta)
	}

	resp, out = ta.doJSON(t, "POST", "/api/products", map[string]any{"name": "Bad", "mrp": 1, "unitType": "LITRE"}, nil)
	if resp.StatusCode != http.StatusBadRequest || out["success"] != false {
		t.Fatalf("invalid unit: %d %v", resp.StatusCode, out)
	}
}

func TestAPI_CustomerDuplicatePhone(t *testing.T) {
	ta := newTestApp(t, handlers.AppOptions{})
	body := map[string]any{"name": "Asha", "phone": "9123456780"}

	resp, out := ta.doJSON(t, "POST", "/api/customers", body, nil)
	if resp.StatusCode != http.StatusCreated || out["success"] != true {
		t.Fatalf("create: %d %v", resp.StatusCode, out)
	}
	resp, out = ta.doJSON(t, "POST", "/api/customers", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("duplicate: want 200, got %d", resp.StatusCode)
	}
	if out["success"] != false || out["message"] != "Customer with this phone already exists" {
		t.Fatalf("duplicate: %v", out)
	}

	_, list := ta.doJSON(t, "GET", "/api/customers?search=asha", nil, nil)
	custs, _ := list["customers"].([]any)
	if len(custs) != 1 {
		t.Fatalf("want 1 customer, got %v", list)
	}
}

func TestAPI_SettingsLazyDefault(t *testing.T) {
	ta := newTestApp(t, handlers.AppOptions{})

	_, st := ta.doJSON(t, "GET", "/api/settings", nil, nil)
	if st["name"] != "N2H Enterprises" || st["phone"] != "9999999999" {
		t.Fatalf("defaults: %v", st)
	}
	resp, out := ta.doJSON(t, "PUT", "/api/settings", map[string]any{"name": "Amma Foods", "email": "hello@amma.example"}, nil)
	if resp.StatusCode != http.StatusOK || out["success"] != true {
		t.Fatalf("update: %d %v", resp.StatusCode, out)
	}
	_, st = ta.doJSON(t, "GET", "/api/settings", nil, nil)
	if st["name"] != "Amma Foods" || st["email"] != "hello@amma.example" {
		t.Fatalf("after update: %v", st)
	}
}
