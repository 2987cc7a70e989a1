package email

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/whatthepack/whatthepack/pkg/domain/interfaces"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

const defaultEndpoint = "https://api.resend.com/emails"

// Client sends transactional email through a Resend-style REST API
type Client struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
}

var _ interfaces.Mailer = (*Client)(nil)

// New creates an email client. from is the default sender used when a mail
// does not set one.
func New(apiKey, from string) *Client {
	return &Client{
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithEndpoint creates a client against a custom API endpoint
func NewWithEndpoint(endpoint, apiKey, from string, httpClient *http.Client) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		from:       from,
		httpClient: httpClient,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send delivers a single mail
func (c *Client) Send(ctx context.Context, mail *interfaces.Mail) error {
	if len(mail.To) == 0 {
		return goerr.New("mail has no recipients", goerr.T(apperr.ErrTagValidation))
	}

	from := mail.From
	if from == "" {
		from = c.from
	}

	body, err := json.Marshal(sendRequest{
		From:    from,
		To:      mail.To,
		Subject: mail.Subject,
		HTML:    mail.HTML,
		Text:    mail.Text,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode mail")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to build mail request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "mail delivery request failed",
			goerr.T(apperr.ErrTagExternalService))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.New("mail API returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
			goerr.V("subject", mail.Subject),
			goerr.T(apperr.ErrTagExternalService))
	}

	return nil
}

// SendToEach fans a mail out to every recipient as an individual send so the
// provider does not expose the recipient list. The whole batch fails when any
// single send fails.
func SendToEach(ctx context.Context, mailer interfaces.Mailer, mail *interfaces.Mail) error {
	eg, ctx := errgroup.WithContext(ctx)

	for _, to := range mail.To {
		each := &interfaces.Mail{
			From:    mail.From,
			To:      []string{to},
			Subject: mail.Subject,
			HTML:    mail.HTML,
			Text:    mail.Text,
		}
		eg.Go(func() error {
			return mailer.Send(ctx, each)
		})
	}

	if err := eg.Wait(); err != nil {
		return goerr.Wrap(err, "mail fan-out failed",
			goerr.V("recipients", len(mail.To)))
	}

	return nil
}
