package interfaces

import "context"

// Mail is a single outbound transactional email
type Mail struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer defines the consumed surface of the transactional email API.
// No delivery-receipt handling is implemented.
type Mailer interface {
	Send(ctx context.Context, mail *Mail) error
}
