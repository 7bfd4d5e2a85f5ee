package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voltgrid/investorportal/internal/portal/domain"
	"github.com/voltgrid/investorportal/internal/portal/mail"
	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/pkg/idx"
)

// Mailer is the outbound-mail dependency; satisfied by *mail.Client.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) (mail.Receipt, error)
}

// SignatureService turns e-signature webhook events into profile updates.
// Delivery is at-least-once upstream, so every step tolerates replays.
type SignatureService struct {
	Store   store.Store
	Mailer  Mailer
	Logger  *slog.Logger
	SiteURL string
}

// EnvelopeResult summarizes one webhook delivery for the response body and
// the logs.
type EnvelopeResult struct {
	Processed      bool     `json:"processed"`
	Updated        []string `json:"updated,omitempty"`         // signer emails newly marked
	AlreadySigned  []string `json:"already_signed,omitempty"`  // replayed signers, no-op
	UnknownSigners []string `json:"unknown_signers,omitempty"` // no matching profile
}

// ProcessEnvelope handles one envelope event. Only completed envelopes are
// acted on; within one, only completed signers. Marking is idempotent: a
// redelivered envelope finds nda_signed already set and changes nothing.
func (s *SignatureService) ProcessEnvelope(ctx context.Context, evt domain.EnvelopeEvent) (EnvelopeResult, error) {
	if evt.Event != domain.EnvelopeCompleted && evt.Data.EnvelopeSummary.Status != domain.EnvelopeCompleted {
		s.Logger.Info("ignoring envelope event",
			"event", evt.Event,
			"status", evt.Data.EnvelopeSummary.Status,
			"envelope_id", evt.Data.EnvelopeID)
		return EnvelopeResult{}, nil
	}

	result := EnvelopeResult{Processed: true}

	for _, signer := range evt.Data.EnvelopeSummary.Recipients.Signers {
		if signer.Status != domain.SignerCompleted {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(signer.Email))
		if email == "" {
			continue
		}

		profile, err := s.Store.Profiles().GetProfileByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			s.Logger.Warn("signer has no profile", "email", email, "envelope_id", evt.Data.EnvelopeID)
			result.UnknownSigners = append(result.UnknownSigners, email)
			continue
		}
		if err != nil {
			return EnvelopeResult{}, fmt.Errorf("failed to load profile: %w", err)
		}

		now := time.Now().UTC()
		changed, err := s.Store.Profiles().MarkNDASigned(ctx, profile.UserID, now)
		if err != nil {
			return EnvelopeResult{}, fmt.Errorf("failed to mark NDA signed: %w", err)
		}
		if !changed {
			result.AlreadySigned = append(result.AlreadySigned, email)
			continue
		}
		result.Updated = append(result.Updated, email)

		entry := domain.ActivityLog{
			ID:     idx.New().String(),
			UserID: profile.UserID,
			Action: domain.ActionNDASigned,
			Metadata: map[string]any{
				"envelope_id": evt.Data.EnvelopeID,
			},
			CreatedAt: now,
		}
		if err := s.Store.Activity().AppendActivity(ctx, entry); err != nil {
			s.Logger.Error("failed to append activity log", "action", domain.ActionNDASigned, "user_id", profile.UserID, "error", err)
		}

		s.sendConfirmation(ctx, profile)
	}

	s.Logger.Info("processed envelope",
		"envelope_id", evt.Data.EnvelopeID,
		"updated", len(result.Updated),
		"already_signed", len(result.AlreadySigned),
		"unknown", len(result.UnknownSigners))
	return result, nil
}

// sendConfirmation emails the signer. Mail failures never fail the webhook;
// the provider would retry the whole envelope otherwise.
func (s *SignatureService) sendConfirmation(ctx context.Context, profile domain.Profile) {
	if s.Mailer == nil {
		return
	}

	name := profile.FullName
	if name == "" {
		name = profile.Email
	}
	subject, html, err := mail.Render(mail.RenderParams{
		Template: mail.TemplateNDAComplete,
		Variables: map[string]any{
			"Name":    name,
			"SiteURL": s.SiteURL,
		},
	})
	if err != nil {
		s.Logger.Error("failed to render NDA confirmation", "error", err)
		return
	}

	if _, err := s.Mailer.Send(ctx, mail.Message{To: profile.Email, Subject: subject, HTML: html}); err != nil {
		s.Logger.Error("failed to send NDA confirmation", "email", profile.Email, "error", err)
	}
}
