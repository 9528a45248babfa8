package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", echo.ErrNotFound, http.StatusNotFound, "not_found"},
		{"too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"},
		{"bad request", echo.NewHTTPError(http.StatusBadRequest, "x"), http.StatusBadRequest, "bad_request"},
		{"plain error", errors.New("db password is hunter2"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/somewhere", http.NoBody)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewErrorHandler(discardLogger())(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeError(t, rec)
			if body.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", body.Error, tt.wantCode)
			}
			if strings.Contains(body.Message, "hunter2") {
				t.Errorf("message leaks internal error: %q", body.Message)
			}
		})
	}
}

func TestErrorHandler_NotFoundMessage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/missing", http.NoBody)
	rec := httptest.NewRecorder()

	NewErrorHandler(discardLogger())(echo.ErrNotFound, e.NewContext(req, rec))

	if got := decodeError(t, rec).Message; got != "Route POST /missing not found" {
		t.Errorf("message = %q", got)
	}
}

func TestErrorHandler_Committed(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Response().WriteHeader(http.StatusAccepted)

	NewErrorHandler(discardLogger())(errors.New("late"), c)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}
