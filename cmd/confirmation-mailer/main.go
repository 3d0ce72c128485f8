package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/config"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/email"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/logger"
)

// confirmation-mailer sends the templated ticket-confirmation email for
// each ticket_id,email row in the recipient list. Failures are logged
// and skipped, never retried; re-run with the remaining rows instead.
func main() {
	_ = godotenv.Load()

	recipientFile := flag.String("recipients", "", "CSV of ticket_id,email rows (no header)")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if *recipientFile == "" {
		log.Fatal("MAILER", "pass -recipients with a ticket_id,email CSV")
	}

	cfg := config.Load()
	if cfg.Email.MailgunAPIKey == "" || cfg.Email.TemplateID == "" {
		log.Fatal("MAILER", "MAILGUN_API_KEY and MAILGUN_TEMPLATE_ID must be set")
	}

	f, err := os.Open(*recipientFile)
	if err != nil {
		log.Fatal("MAILER", fmt.Sprintf("failed to open recipient list: %v", err))
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatal("MAILER", fmt.Sprintf("failed to parse recipient list: %v", err))
	}

	sender := email.NewSender(cfg.Email, &http.Client{Timeout: 30 * time.Second}, log)

	sent := 0
	for i, row := range rows {
		if len(row) < 2 {
			log.Warn("MAILER", fmt.Sprintf("row %d is missing ticket_id or email, skipping", i+1))
			continue
		}
		ticketID, address := row[0], row[1]

		status, err := sender.SendConfirmation(context.Background(), ticketID, address)
		if err != nil {
			log.Error("MAILER", fmt.Sprintf("send failed for %s: %v", ticketID, err))
			continue
		}
		if status >= 300 {
			log.Warn("MAILER", fmt.Sprintf("provider returned %d for %s", status, ticketID))
			continue
		}
		sent++
	}

	log.Info("MAILER", fmt.Sprintf("Sent %d of %d confirmations", sent, len(rows)))
}
