package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "sheet write failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("conflict includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeConflict, "already clocked in"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "conflict" {
			t.Fatalf("expected error code conflict, got %q", body["error"])
		}
		if body["error_description"] != "already clocked in" {
			t.Fatalf("expected error_description to be returned, got %q", body["error_description"])
		}
	})

	t.Run("details object is passed through", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteErrorDetails(w, dErrors.New(dErrors.CodeOutOfRange, "outside geofence"), map[string]any{
			"site_name": "Main Office",
			"radius":    100,
		})

		var body struct {
			Error   string         `json:"error"`
			Details map[string]any `json:"details"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Error != "out_of_range" {
			t.Fatalf("expected error code out_of_range, got %q", body.Error)
		}
		if body.Details["site_name"] != "Main Office" {
			t.Fatalf("expected site_name detail, got %v", body.Details)
		}
	})
}

func TestDecode(t *testing.T) {
	type payload struct {
		Latitude float64 `json:"latitude"`
	}

	t.Run("valid body decodes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"latitude":41.8781}`))
		p, err := Decode[payload](r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Latitude != 41.8781 {
			t.Fatalf("expected latitude to decode, got %v", p.Latitude)
		}
	})

	t.Run("malformed body returns bad_request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		_, err := Decode[payload](r)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad_request, got %v", err)
		}
	})
}
