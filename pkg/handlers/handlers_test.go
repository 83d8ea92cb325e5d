package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondJSON(rec, http.StatusAccepted, map[string]string{"status": "processing"})

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %s", ct)
	}

	var parsed map[string]string
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if parsed["status"] != "processing" {
		t.Errorf("status field: got %s, want processing", parsed["status"])
	}
}

func TestRespondError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handlers.RespondError(rec, logger, http.StatusConflict, errors.New("grading exists"))

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}

	var parsed map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed["error"] != "grading exists" {
		t.Errorf("error: got %s, want grading exists", parsed["error"])
	}
}

type payload struct {
	Name string `json:"name"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"valid", `{"name":"pitch"}`, "pitch", false},
		{"unknown field", `{"name":"pitch","extra":1}`, "", true},
		{"malformed", `{"name":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			got, err := handlers.DecodeJSON[payload](httptest.NewRecorder(), req)

			if tt.wantErr {
				if !errors.Is(err, handlers.ErrInvalidBody) {
					t.Errorf("err: got %v, want ErrInvalidBody", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("name: got %s, want %s", got.Name, tt.want)
			}
		})
	}
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	mux := http.NewServeMux()

	var got uuid.UUID
	var gotErr error
	mux.HandleFunc("GET /gradings/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = handlers.PathUUID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/gradings/"+id.String(), nil))
	if gotErr != nil || got != id {
		t.Errorf("PathUUID: got %v (%v), want %v", got, gotErr, id)
	}

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/gradings/not-a-uuid", nil))
	if gotErr == nil {
		t.Error("PathUUID: expected error for malformed id")
	}
}
