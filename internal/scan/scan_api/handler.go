package scan_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/logger"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/models"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/scan"
)

const (
	actionSubmit = "submit"
	actionStatus = "status"
	actionData   = "data"
)

// ScanService is the state machine contract the HTTP layer depends on.
type ScanService interface {
	Submit(ctx context.Context, ticketID, secretKey string) error
	Status(ctx context.Context, ticketID string) (*models.Ticket, error)
	Data(ctx context.Context, ticketID string) (map[string]interface{}, error)
}

type Handler struct {
	Service   ScanService
	Responder *Responder
	Logger    *logger.Logger
}

func NewHandler(service ScanService, allowedOrigins string, log *logger.Logger) *Handler {
	return &Handler{
		Service:   service,
		Responder: &Responder{AllowedOrigins: allowedOrigins},
		Logger:    log,
	}
}

// Routes builds the router for the /{ticketID}/{action} surface. Paths
// with any other segment count fall through to NotFound and report a
// malformed path; verbs outside GET and POST report an unsupported
// action.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.Responder.AllowedOrigins != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{h.Responder.AllowedOrigins},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/{ticketID}/{action}", h.Dispatch)
	r.Post("/{ticketID}/{action}", h.Dispatch)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		h.Responder.Err(w, &scan.Error{
			Kind:    scan.KindMalformedPath,
			Message: fmt.Sprintf("Malformed path: %s", req.URL.Path),
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		h.Responder.Err(w, &scan.Error{
			Kind:    scan.KindUnsupportedAction,
			Message: "Unsupported action",
		})
	})

	return r
}

// Dispatch routes a verb/action pair to the state machine.
func (h *Handler) Dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	ticketID := chi.URLParam(req, "ticketID")
	action := chi.URLParam(req, "action")

	var status int
	switch {
	case req.Method == http.MethodPost && action == actionSubmit:
		status = h.submit(w, req, ticketID)
	case req.Method == http.MethodGet && action == actionStatus:
		status = h.status(w, req, ticketID)
	case req.Method == http.MethodGet && action == actionData:
		status = h.data(w, req, ticketID)
	default:
		status = http.StatusBadRequest
		h.Responder.Err(w, &scan.Error{
			Kind:    scan.KindUnsupportedAction,
			Message: "Unsupported action",
		})
	}

	if h.Logger != nil {
		h.Logger.LogAPI(req.Method, req.URL.Path, fmt.Sprintf("%d", status), time.Since(start).String())
	}
}

func (h *Handler) submit(w http.ResponseWriter, req *http.Request, ticketID string) int {
	var body struct {
		SecretKey string `json:"secret_key"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		h.Responder.Err(w, &scan.Error{
			Kind:    scan.KindInvalidBody,
			Message: "Invalid request body",
		})
		return http.StatusBadRequest
	}

	if err := h.Service.Submit(req.Context(), ticketID, body.SecretKey); err != nil {
		return h.fail(w, err)
	}

	h.Responder.Success(w, map[string]string{"status": "success"})
	return http.StatusOK
}

func (h *Handler) status(w http.ResponseWriter, req *http.Request, ticketID string) int {
	ticket, err := h.Service.Status(req.Context(), ticketID)
	if err != nil {
		return h.fail(w, err)
	}

	h.Responder.Success(w, ticket)
	return http.StatusOK
}

func (h *Handler) data(w http.ResponseWriter, req *http.Request, ticketID string) int {
	merged, err := h.Service.Data(req.Context(), ticketID)
	if err != nil {
		return h.fail(w, err)
	}

	h.Responder.Success(w, merged)
	return http.StatusOK
}

func (h *Handler) fail(w http.ResponseWriter, err error) int {
	status := http.StatusBadRequest
	if scanErr, ok := err.(*scan.Error); ok {
		status = scanErr.Status()
	}
	h.Responder.Err(w, err)
	return status
}
