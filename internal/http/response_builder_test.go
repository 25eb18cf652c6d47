package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("HX-Trigger set without triggers")
	}
}

func TestHTMXResponseBuilder_LedgerChanged(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerLedgerChanged("assign_fine", "Alice").
		TriggerFormReset().
		TriggerSuccessNotification("Bøde tilføjet").
		Write(w)

	var triggers map[string]map[string]interface{}
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	changed, ok := triggers[LedgerChangedEvent]
	if !ok {
		t.Fatalf("missing %s trigger: %v", LedgerChangedEvent, triggers)
	}
	if changed["operation"] != "assign_fine" || changed["member"] != "Alice" {
		t.Errorf("ledger:changed payload = %v", changed)
	}
	if _, ok := triggers["form:reset"]; !ok {
		t.Errorf("missing form:reset trigger")
	}
	note := triggers["show-notification"]
	if note["type"] != "success" || note["message"] != "Bøde tilføjet" {
		t.Errorf("notification payload = %v", note)
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="notice error">Invalid input</div>`,
		},
		{
			name:       "forbidden",
			builder:    ForbiddenError("Adgang nægtet."),
			wantStatus: http.StatusForbidden,
			wantBody:   `<div class="notice error">Adgang nægtet.</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("Validation failed"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="notice error">Validation failed</div>`,
		},
		{
			name:       "warning",
			builder:    WarningResponse("Ukendt spiller."),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="notice warning">Ukendt spiller.</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="notice error">Something broke</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Resource not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="notice error">Resource not found</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestWarningResponse_Notifies(t *testing.T) {
	w := httptest.NewRecorder()
	WarningResponse("Spiller er allerede i klubben.").Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"type":"warning"`) {
		t.Errorf("warning notification missing: %s", trigger)
	}
	if strings.Contains(trigger, LedgerChangedEvent) {
		t.Errorf("rejected input must not announce a change: %s", trigger)
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, POST" {
		t.Errorf("Allow header = %q, want %q", w.Header().Get("Allow"), "GET, POST")
	}
}

func TestNotificationTypes(t *testing.T) {
	tests := []struct {
		notifType NotificationType
		want      string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewHTMXResponse().
			TriggerNotification(tt.notifType, "test", 1000).
			Write(w)

		trigger := w.Header().Get("HX-Trigger")
		if !strings.Contains(trigger, `"type":"`+tt.want+`"`) {
			t.Errorf("Notification type %q not found in trigger: %s", tt.want, trigger)
		}
	}
}

func TestHTMXResponseBuilder_TriggerHeaderIsASCII(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().TriggerSuccessNotification("Bøde tilføjet til Søren").Write(w)

	trigger := w.Header().Get("HX-Trigger")
	for i := 0; i < len(trigger); i++ {
		if trigger[i] >= 0x80 {
			t.Fatalf("non-ASCII byte at %d in %q", i, trigger)
		}
	}
	if !strings.Contains(trigger, `B\u00f8de`) {
		t.Errorf("expected escaped ø: %s", trigger)
	}

	var decoded map[string]map[string]interface{}
	if err := json.Unmarshal([]byte(trigger), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["show-notification"]["message"] != "Bøde tilføjet til Søren" {
		t.Errorf("round trip lost text: %v", decoded)
	}
}
