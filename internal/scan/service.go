package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/logger"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/models"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/store"
)

// Storage is the store contract the state machine depends on.
type Storage interface {
	FindTicket(ctx context.Context, ticketID string) (*models.Ticket, error)
	FindEvent(ctx context.Context, eventID string) (*models.Event, error)
	MarkScanned(ctx context.Context, ticketID string, scannedAt int64) error
	IncrementScanCount(ctx context.Context, ticketID string) (int64, error)
}

// Publisher streams scan events after a successful submission.
type Publisher interface {
	PublishTicketScanned(event models.ScanEvent) error
}

// Service enforces the ticket lifecycle: a ticket is submitted
// successfully exactly once, guarded by the shared secret and the
// store's conditional write.
type Service struct {
	Store     Storage
	SecretKey string
	EventJoin bool
	Publisher Publisher
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewService(storage Storage, secretKey string, eventJoin bool, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		Store:     storage,
		SecretKey: secretKey,
		EventJoin: eventJoin,
		Publisher: publisher,
		Logger:    log,
		Now:       time.Now,
	}
}

// Submit transitions a ticket from unscanned to scanned. The secret is
// checked before any write; the scanned_at stamp itself is a conditional
// store write, so two concurrent submissions cannot both succeed.
func (s *Service) Submit(ctx context.Context, ticketID, secretKey string) error {
	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	if secretKey != s.SecretKey {
		return newError(KindAuth, "Invalid secret key")
	}

	scannedAt := s.Now().Unix()
	if err := s.Store.MarkScanned(ctx, ticketID, scannedAt); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return newError(KindAlreadyScanned, "Ticket already scanned")
		}
		return storeError(err)
	}

	s.logScan(ticketID, ticket)
	s.publishScan(models.ScanEvent{TicketID: ticketID, ScannedAt: scannedAt})
	return nil
}

// Status returns the full ticket record. Each call bumps scanned_count
// by exactly one as an access counter; ticket content and scan state are
// untouched.
func (s *Service) Status(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	count, err := s.Store.IncrementScanCount(ctx, ticketID)
	if err != nil {
		return nil, storeError(err)
	}
	ticket.ScannedCount = count

	return ticket, nil
}

// Data returns the ticket merged with its event record when the service
// runs event-aware. Ticket fields win on key collisions. Read-only.
func (s *Service) Data(ctx context.Context, ticketID string) (map[string]interface{}, error) {
	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !s.EventJoin {
		return ticket.Fields(), nil
	}

	eventID := ticket.EventID()
	if eventID == "" {
		return nil, newError(KindInvalidEvent, fmt.Sprintf("Invalid event for ticket %s", ticketID))
	}

	event, err := s.Store.FindEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindInvalidEvent, fmt.Sprintf("Invalid event_id %s", eventID))
		}
		return nil, storeError(err)
	}

	merged := event.Fields()
	for k, v := range ticket.Fields() {
		merged[k] = v
	}
	return merged, nil
}

func (s *Service) findTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.Store.FindTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindInvalidTicket, fmt.Sprintf("Invalid ticket_id %s", ticketID))
		}
		return nil, storeError(err)
	}
	return ticket, nil
}

func (s *Service) logScan(ticketID string, ticket *models.Ticket) {
	if s.Logger == nil {
		return
	}
	seat := ticket.Meta["seat_id"]
	s.Logger.LogScan("SUBMIT", ticketID, fmt.Sprintf("ticket scanned (seat %s)", seat))
}

// publishScan is fire-and-forget: the scan already committed, so a
// broker hiccup must not fail the request.
func (s *Service) publishScan(event models.ScanEvent) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishTicketScanned(event); err != nil && s.Logger != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish scan event for %s: %v", event.TicketID, err))
	}
}

func storeError(err error) *Error {
	return newError(KindStoreUnavailable, fmt.Sprintf("Ticket store unavailable: %v", err))
}
