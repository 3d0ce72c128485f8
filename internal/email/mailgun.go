package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/config"
	"github.com/Orchestra-of-the-Music-Makers/omm-ticketing/internal/logger"
)

// shortIDLength is how many leading characters of the ticket id appear
// in the subject line and template.
const shortIDLength = 6

// Sender delivers ticket-confirmation emails through the Mailgun
// messages API. Send failures are reported to the caller but never
// retried here; the batch mailer logs and moves on.
type Sender struct {
	Config     config.EmailConfig
	HTTPClient *http.Client
	Logger     *logger.Logger
	BaseURL    string
}

func NewSender(cfg config.EmailConfig, httpClient *http.Client, log *logger.Logger) *Sender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Sender{
		Config:     cfg,
		HTTPClient: httpClient,
		Logger:     log,
		BaseURL:    "https://api.mailgun.net/v3",
	}
}

// SendConfirmation sends the templated confirmation for a ticket and
// returns the provider's HTTP status code.
func (s *Sender) SendConfirmation(ctx context.Context, ticketID, emailAddress string) (int, error) {
	shortID := shortTicketID(ticketID)

	templateData, err := json.Marshal(map[string]string{
		"ticket_id":       ticketID,
		"short_ticket_id": shortID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode template variables: %w", err)
	}

	form := url.Values{}
	form.Set("from", s.Config.From)
	form.Set("to", emailAddress)
	form.Set("subject", fmt.Sprintf("Your Ticket for OMM Restarts! #%s", shortID))
	form.Set("template", s.Config.TemplateID)
	form.Set("h:X-Mailgun-Variables", string(templateData))
	form.Set("o:tag", s.Config.Tag)

	endpoint := fmt.Sprintf("%s/%s/messages", s.BaseURL, s.Config.MailgunDomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth("api", s.Config.MailgunAPIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send confirmation for %s: %w", ticketID, err)
	}
	defer resp.Body.Close()

	if s.Logger != nil {
		s.Logger.LogEmail(ticketID, fmt.Sprintf("confirmation sent to %s (status %d)", emailAddress, resp.StatusCode))
	}

	return resp.StatusCode, nil
}

func shortTicketID(ticketID string) string {
	if len(ticketID) > shortIDLength {
		ticketID = ticketID[:shortIDLength]
	}
	return strings.ToUpper(ticketID)
}
