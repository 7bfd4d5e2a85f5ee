package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	portalmail "github.com/voltgrid/investorportal/internal/portal/mail"
)

var ErrInvalidRecipient = errors.New("invalid recipient address")

// EmailService renders transactional templates and hands them to the mail
// provider. Provider failures propagate so the handler can report them.
type EmailService struct {
	Mailer  Mailer
	Logger  *slog.Logger
	SiteURL string
}

// SendParams describe one transactional send. Variables are merged into the
// template; Subject is required only for the custom template.
type SendParams struct {
	To        string
	Template  string
	Subject   string
	Variables map[string]any
}

// Send validates the recipient, renders the named template and submits the
// message.
func (s *EmailService) Send(ctx context.Context, p SendParams) (portalmail.Receipt, error) {
	to := strings.TrimSpace(p.To)
	if _, err := mail.ParseAddress(to); err != nil {
		return portalmail.Receipt{}, ErrInvalidRecipient
	}

	vars := make(map[string]any, len(p.Variables)+1)
	for k, v := range p.Variables {
		vars[k] = v
	}
	if _, ok := vars["SiteURL"]; !ok {
		vars["SiteURL"] = s.SiteURL
	}

	subject, html, err := portalmail.Render(portalmail.RenderParams{
		Template:  p.Template,
		Subject:   p.Subject,
		Variables: vars,
	})
	if err != nil {
		return portalmail.Receipt{}, err
	}

	receipt, err := s.Mailer.Send(ctx, portalmail.Message{To: to, Subject: subject, HTML: html})
	if err != nil {
		return portalmail.Receipt{}, fmt.Errorf("failed to send email: %w", err)
	}

	s.Logger.Info("email sent", "to", to, "template", p.Template, "receipt_id", receipt.ID)
	return receipt, nil
}
