package scan_api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/models"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/scan"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/scan/scan_api"
)

// fakeService scripts the state machine so handler behavior can be
// checked in isolation.
type fakeService struct {
	submitErr    error
	statusTicket *models.Ticket
	statusErr    error
	dataFields   map[string]interface{}
	dataErr      error

	lastTicketID string
	lastSecret   string
}

func (f *fakeService) Submit(ctx context.Context, ticketID, secretKey string) error {
	f.lastTicketID = ticketID
	f.lastSecret = secretKey
	return f.submitErr
}

func (f *fakeService) Status(ctx context.Context, ticketID string) (*models.Ticket, error) {
	f.lastTicketID = ticketID
	return f.statusTicket, f.statusErr
}

func (f *fakeService) Data(ctx context.Context, ticketID string) (map[string]interface{}, error) {
	f.lastTicketID = ticketID
	return f.dataFields, f.dataErr
}

func serve(t *testing.T, svc scan_api.ScanService, origins, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := scan_api.NewHandler(svc, origins, nil)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Routes().ServeHTTP(w, req)
	return w
}

func TestSubmitEndpoint(t *testing.T) {
	t.Run("successful submit", func(t *testing.T) {
		svc := &fakeService{}
		w := serve(t, svc, "", http.MethodPost, "/abc123/submit", `{"secret_key":"hunter2"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "abc123", svc.lastTicketID)
		assert.Equal(t, "hunter2", svc.lastSecret)
	})

	t.Run("already scanned", func(t *testing.T) {
		svc := &fakeService{submitErr: &scan.Error{Kind: scan.KindAlreadyScanned, Message: "Ticket already scanned"}}
		w := serve(t, svc, "", http.MethodPost, "/abc123/submit", `{"secret_key":"hunter2"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Ticket already scanned", w.Body.String())
	})

	t.Run("invalid secret", func(t *testing.T) {
		svc := &fakeService{submitErr: &scan.Error{Kind: scan.KindAuth, Message: "Invalid secret key"}}
		w := serve(t, svc, "", http.MethodPost, "/abc123/submit", `{"secret_key":"wrong"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid secret key", w.Body.String())
	})

	t.Run("unparsable body", func(t *testing.T) {
		svc := &fakeService{}
		w := serve(t, svc, "", http.MethodPost, "/abc123/submit", `{"secret_key":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", w.Body.String())
		assert.Empty(t, svc.lastTicketID, "service must not be called on a bad body")
	})

	t.Run("empty body", func(t *testing.T) {
		w := serve(t, &fakeService{}, "", http.MethodPost, "/abc123/submit", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", w.Body.String())
	})

	t.Run("store outage maps to 503", func(t *testing.T) {
		svc := &fakeService{submitErr: &scan.Error{Kind: scan.KindStoreUnavailable, Message: "Ticket store unavailable: connection refused"}}
		w := serve(t, svc, "", http.MethodPost, "/abc123/submit", `{"secret_key":"hunter2"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("unscanned ticket with incremented count", func(t *testing.T) {
		svc := &fakeService{statusTicket: &models.Ticket{
			TicketID:     "abc123",
			ScannedCount: 1,
			Meta:         map[string]string{"seat_id": "A1", "start_time": "1600000000"},
		}}
		w := serve(t, svc, "", http.MethodGet, "/abc123/status", "")

		require.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, `"scanned_at":null`)
		assert.Contains(t, body, `"scanned_count":1`)
		// Integer metadata must serialize without a float representation.
		assert.Contains(t, body, `"start_time":1600000000`)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
		assert.Equal(t, "abc123", decoded["ticket_id"])
		assert.Equal(t, "A1", decoded["seat_id"])
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc := &fakeService{statusErr: &scan.Error{Kind: scan.KindInvalidTicket, Message: "Invalid ticket_id missing"}}
		w := serve(t, svc, "", http.MethodGet, "/missing/status", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid ticket_id missing", w.Body.String())
	})
}

func TestDataEndpoint(t *testing.T) {
	t.Run("merged record", func(t *testing.T) {
		svc := &fakeService{dataFields: map[string]interface{}{
			"ticket_id":  "abc123",
			"event_name": "OMM Restarts",
			"venue":      "Victoria Concert Hall",
		}}
		w := serve(t, svc, "", http.MethodGet, "/abc123/data", "")

		require.Equal(t, http.StatusOK, w.Code)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
		assert.Equal(t, "OMM Restarts", decoded["event_name"])
		assert.Equal(t, "abc123", decoded["ticket_id"])
	})

	t.Run("missing event", func(t *testing.T) {
		svc := &fakeService{dataErr: &scan.Error{Kind: scan.KindInvalidEvent, Message: "Invalid event_id omm2020"}}
		w := serve(t, svc, "", http.MethodGet, "/abc123/data", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid event_id omm2020", w.Body.String())
	})
}

func TestRouting(t *testing.T) {
	t.Run("single segment path is malformed", func(t *testing.T) {
		w := serve(t, &fakeService{}, "", http.MethodGet, "/abc123", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Malformed path")
	})

	t.Run("three segment path is malformed", func(t *testing.T) {
		w := serve(t, &fakeService{}, "", http.MethodGet, "/abc123/status/extra", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Malformed path")
	})

	t.Run("unknown action", func(t *testing.T) {
		w := serve(t, &fakeService{}, "", http.MethodGet, "/abc123/refund", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Unsupported action", w.Body.String())
	})

	t.Run("wrong verb for action", func(t *testing.T) {
		w := serve(t, &fakeService{}, "", http.MethodGet, "/abc123/submit", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Unsupported action", w.Body.String())
	})

	t.Run("unsupported method", func(t *testing.T) {
		w := serve(t, &fakeService{}, "", http.MethodPut, "/abc123/submit", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Unsupported action", w.Body.String())
	})
}

func TestCORSHeaders(t *testing.T) {
	t.Run("origin header set when configured", func(t *testing.T) {
		svc := &fakeService{statusTicket: &models.Ticket{TicketID: "abc123", Meta: map[string]string{}}}
		w := serve(t, svc, "https://tickets.orchestra.sg", http.MethodGet, "/abc123/status", "")

		assert.Equal(t, "https://tickets.orchestra.sg", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("origin header set on errors too", func(t *testing.T) {
		w := serve(t, &fakeService{}, "https://tickets.orchestra.sg", http.MethodGet, "/abc123", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "https://tickets.orchestra.sg", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origin header by default", func(t *testing.T) {
		svc := &fakeService{statusTicket: &models.Ticket{TicketID: "abc123", Meta: map[string]string{}}}
		w := serve(t, svc, "", http.MethodGet, "/abc123/status", "")

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
