package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/config"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/logger"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/models"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/store"
)

// ticket-loader bulk-provisions ticket and event records. This is the
// out-of-band path: the scanning API itself never creates or deletes
// tickets.
//
// Manifests are CSV with a header row. Tickets need a ticket_id column
// (left blank to mint one); events need an event_id column. Remaining
// columns are stored verbatim as record metadata.
func main() {
	_ = godotenv.Load()

	ticketFile := flag.String("tickets", "", "CSV manifest of tickets to load")
	eventFile := flag.String("events", "", "CSV manifest of events to load")
	qrDir := flag.String("qr-dir", "", "directory to write per-ticket QR codes into")
	baseURL := flag.String("base-url", "https://tickets.orchestra.sg", "ticket URL prefix encoded in QR codes")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if *ticketFile == "" && *eventFile == "" {
		log.Fatal("LOADER", "nothing to do: pass -tickets and/or -events")
	}

	cfg := config.Load()

	ticketStore, err := store.New(cfg.Redis.Addr)
	if err != nil {
		log.Fatal("STORE", err.Error())
	}
	defer ticketStore.Close()

	ctx := context.Background()

	if *eventFile != "" {
		n, err := loadEvents(ctx, ticketStore, *eventFile)
		if err != nil {
			log.Fatal("LOADER", err.Error())
		}
		log.Info("LOADER", fmt.Sprintf("Loaded %d events from %s", n, *eventFile))
	}

	if *ticketFile != "" {
		n, err := loadTickets(ctx, ticketStore, log, *ticketFile, *qrDir, *baseURL)
		if err != nil {
			log.Fatal("LOADER", err.Error())
		}
		log.Info("LOADER", fmt.Sprintf("Loaded %d tickets from %s", n, *ticketFile))
	}
}

func loadTickets(ctx context.Context, ticketStore *store.Store, log *logger.Logger, path, qrDir, baseURL string) (int, error) {
	rows, header, err := readManifest(path)
	if err != nil {
		return 0, err
	}

	idCol := columnIndex(header, "ticket_id")
	if idCol < 0 {
		return 0, fmt.Errorf("manifest %s has no ticket_id column", path)
	}

	count := 0
	for _, row := range rows {
		ticket := models.Ticket{
			TicketID: row[idCol],
			Meta:     make(map[string]string),
		}
		if ticket.TicketID == "" {
			ticket.TicketID = uuid.NewString()
		}
		for i, col := range header {
			if i == idCol || row[i] == "" {
				continue
			}
			ticket.Meta[col] = row[i]
		}

		if err := ticketStore.PutTicket(ctx, ticket); err != nil {
			return count, err
		}
		log.LogStore("PUT", ticket.TicketID, "ticket provisioned")

		if qrDir != "" {
			if err := writeQR(qrDir, baseURL, ticket.TicketID); err != nil {
				return count, err
			}
		}
		count++
	}
	return count, nil
}

func loadEvents(ctx context.Context, ticketStore *store.Store, path string) (int, error) {
	rows, header, err := readManifest(path)
	if err != nil {
		return 0, err
	}

	idCol := columnIndex(header, "event_id")
	if idCol < 0 {
		return 0, fmt.Errorf("manifest %s has no event_id column", path)
	}

	count := 0
	for _, row := range rows {
		event := models.Event{
			EventID: row[idCol],
			Meta:    make(map[string]string),
		}
		if event.EventID == "" {
			return count, fmt.Errorf("manifest %s has a row with empty event_id", path)
		}
		for i, col := range header {
			if i == idCol || row[i] == "" {
				continue
			}
			event.Meta[col] = row[i]
		}

		if err := ticketStore.PutEvent(ctx, event); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func readManifest(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("manifest %s has no data rows", path)
	}
	return records[1:], records[0], nil
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

func writeQR(qrDir, baseURL, ticketID string) error {
	if err := os.MkdirAll(qrDir, 0755); err != nil {
		return err
	}
	target := fmt.Sprintf("%s/%s", baseURL, ticketID)
	out := filepath.Join(qrDir, ticketID+".png")
	if err := qrcode.WriteFile(target, qrcode.Medium, 256, out); err != nil {
		return fmt.Errorf("failed to write QR for %s: %w", ticketID, err)
	}
	return nil
}
