package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newRequestWithChiParam(name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	req := httptest.NewRequest("GET", "/", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"valid_custom", "limit=25&offset=10", 25, 10},
		{"limit_over_1000_clamps", "limit=2000", 50, 0},
		{"limit_zero_clamps", "limit=0", 50, 0},
		{"negative_offset_clamps", "offset=-5", 50, 0},
		{"non_numeric_ignored", "limit=abc&offset=xyz", 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/?"+tt.query, nil)
			p := ParsePagination(req)
			if p.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", p.Offset, tt.wantOffset)
			}
		})
	}
}

func TestQueryInt64(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?n=9999999999", nil)
		v, ok := QueryInt64(req, "n")
		if !ok || v != 9999999999 {
			t.Errorf("got (%d, %v), want (9999999999, true)", v, ok)
		}
	})
	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		_, ok := QueryInt64(req, "n")
		if ok {
			t.Error("expected ok=false")
		}
	})
	t.Run("non_numeric", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?n=abc", nil)
		_, ok := QueryInt64(req, "n")
		if ok {
			t.Error("expected ok=false")
		}
	})
}

func TestQueryString(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?q=hello", nil)
		v, ok := QueryString(req, "q")
		if !ok || v != "hello" {
			t.Errorf("got (%q, %v), want (\"hello\", true)", v, ok)
		}
	})
	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		_, ok := QueryString(req, "q")
		if ok {
			t.Error("expected ok=false")
		}
	})
}

func TestPathInt64(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := newRequestWithChiParam("id", "9999999999")
		v, err := PathInt64(req, "id")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 9999999999 {
			t.Errorf("got %d, want 9999999999", v)
		}
	})
	t.Run("missing", func(t *testing.T) {
		rctx := chi.NewRouteContext()
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		_, err := PathInt64(req, "id")
		if err == nil {
			t.Error("expected error for missing param")
		}
	})
	t.Run("non_numeric", func(t *testing.T) {
		req := newRequestWithChiParam("id", "abc")
		_, err := PathInt64(req, "id")
		if err == nil {
			t.Error("expected error for non-numeric param")
		}
	})
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"msg": "ok"})

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if body["msg"] != "ok" {
		t.Errorf("body = %v, want msg=ok", body)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad input")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if body.Error != "bad input" {
		t.Errorf("Error = %q, want %q", body.Error, "bad input")
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid_body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"test"}`))
		var dst struct {
			Name string `json:"name"`
		}
		if err := DecodeJSON(req, &dst); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dst.Name != "test" {
			t.Errorf("Name = %q, want %q", dst.Name, "test")
		}
	})
	t.Run("nil_body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		req.Body = nil
		var dst struct{}
		if err := DecodeJSON(req, &dst); err == nil {
			t.Error("expected error for nil body")
		}
	})
	t.Run("malformed_json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{bad`))
		var dst struct{}
		if err := DecodeJSON(req, &dst); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestWriteErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorDetail(rec, http.StatusUnprocessableEntity, "validation failed", "name is required")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if body.Error != "validation failed" {
		t.Errorf("Error = %q, want %q", body.Error, "validation failed")
	}
	if body.Detail != "name is required" {
		t.Errorf("Detail = %q, want %q", body.Detail, "name is required")
	}
}
