package models

// ScanEvent is published after a ticket transitions to scanned.
type ScanEvent struct {
	TicketID  string `json:"ticket_id"`
	ScannedAt int64  `json:"scanned_at"`
}
