package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/models"
)

// Sentinel results a caller can branch on. Anything else coming out of
// this package is a transport failure.
var (
	ErrNotFound        = errors.New("record not found")
	ErrConditionFailed = errors.New("conditional write failed")
)

const (
	ticketKeyPrefix = "ticket:"
	eventKeyPrefix  = "event:"

	scannedAtField    = "scanned_at"
	scannedCountField = "scanned_count"
)

// Store is the key-value adapter for the ticketing table. Tickets and
// events are Redis hashes; scan-state writes rely on Redis primitives
// (HSETNX, HINCRBY) so no coordination happens in-process.
type Store struct {
	Client *redis.Client
}

// New connects to Redis and verifies the connection before returning.
// The client is created once at startup and closed on shutdown.
func New(addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password
		DB:       0,  // use default DB
		PoolSize: 10, // connection pool size
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Store{Client: client}, nil
}

func (s *Store) Close() error {
	return s.Client.Close()
}

func ticketKey(ticketID string) string { return ticketKeyPrefix + ticketID }
func eventKey(eventID string) string   { return eventKeyPrefix + eventID }

// FindTicket does a point lookup by ticket id. A missing hash maps to
// ErrNotFound.
func (s *Store) FindTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	fields, err := s.Client.HGetAll(ctx, ticketKey(ticketID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticket %s: %w", ticketID, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return ticketFromHash(ticketID, fields)
}

// FindEvent does a point lookup by event id.
func (s *Store) FindEvent(ctx context.Context, eventID string) (*models.Event, error) {
	fields, err := s.Client.HGetAll(ctx, eventKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", eventID, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return &models.Event{EventID: eventID, Meta: fields}, nil
}

// MarkScanned stamps scanned_at, but only if the field is currently
// unset. HSETNX makes the check-and-set a single atomic operation, so
// concurrent submissions resolve to exactly one winner.
func (s *Store) MarkScanned(ctx context.Context, ticketID string, scannedAt int64) error {
	set, err := s.Client.HSetNX(ctx, ticketKey(ticketID), scannedAtField, scannedAt).Result()
	if err != nil {
		return fmt.Errorf("failed to mark ticket %s scanned: %w", ticketID, err)
	}
	if !set {
		return ErrConditionFailed
	}
	return nil
}

// IncrementScanCount adds 1 to scanned_count. HINCRBY is atomic on the
// server, so concurrent increments never lose updates.
func (s *Store) IncrementScanCount(ctx context.Context, ticketID string) (int64, error) {
	count, err := s.Client.HIncrBy(ctx, ticketKey(ticketID), scannedCountField, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment scan count for %s: %w", ticketID, err)
	}
	return count, nil
}

// PutTicket writes a full ticket record. Used by the out-of-band
// provisioning loader, never by the scanning API.
func (s *Store) PutTicket(ctx context.Context, ticket models.Ticket) error {
	values := make(map[string]interface{}, len(ticket.Meta)+2)
	for k, v := range ticket.Meta {
		values[k] = v
	}
	values[scannedCountField] = ticket.ScannedCount
	if ticket.ScannedAt != nil {
		values[scannedAtField] = *ticket.ScannedAt
	}
	if err := s.Client.HSet(ctx, ticketKey(ticket.TicketID), values).Err(); err != nil {
		return fmt.Errorf("failed to store ticket %s: %w", ticket.TicketID, err)
	}
	return nil
}

// PutEvent writes an event record for ticket data enrichment.
func (s *Store) PutEvent(ctx context.Context, event models.Event) error {
	values := make(map[string]interface{}, len(event.Meta))
	for k, v := range event.Meta {
		values[k] = v
	}
	if err := s.Client.HSet(ctx, eventKey(event.EventID), values).Err(); err != nil {
		return fmt.Errorf("failed to store event %s: %w", event.EventID, err)
	}
	return nil
}

func ticketFromHash(ticketID string, fields map[string]string) (*models.Ticket, error) {
	ticket := &models.Ticket{
		TicketID: ticketID,
		Meta:     make(map[string]string, len(fields)),
	}
	for k, v := range fields {
		switch k {
		case scannedAtField:
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ticket %s has corrupt scanned_at %q: %w", ticketID, v, err)
			}
			ticket.ScannedAt = &ts
		case scannedCountField:
			count, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ticket %s has corrupt scanned_count %q: %w", ticketID, v, err)
			}
			ticket.ScannedCount = count
		default:
			ticket.Meta[k] = v
		}
	}
	return ticket, nil
}
