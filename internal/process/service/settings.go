package service

import (
	"context"
	"strings"
	"time"

	"clarity/internal/process/models"
)

// SetPersona replaces the acting persona. The type must be one of the known
// persona types.
func (s *Service) SetPersona(ctx context.Context, id string, persona models.Persona) error {
	personaType, err := models.ParsePersonaType(strings.TrimSpace(string(persona.Type)))
	if err != nil {
		return err
	}
	persona.Type = personaType
	_, _, err = s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		p.Persona = persona
		return nil
	})
	return err
}

// SetDataExpiry toggles the retention policy. Enabling sets the expiry date
// to now plus the configured window; disabling clears both dates. Nothing
// schedules the deletion itself.
func (s *Service) SetDataExpiry(ctx context.Context, id string, enabled bool) {
	_, _, _ = s.mutate(ctx, id, func(p *models.Process, now time.Time) error {
		p.DataExpiry = models.NewDataExpiry(enabled, s.expiryDays, now)
		return nil
	})
}

// SetVoiceEnabled toggles voice interaction for the process.
func (s *Service) SetVoiceEnabled(ctx context.Context, id string, enabled bool) {
	_, _, _ = s.mutate(ctx, id, func(p *models.Process, _ time.Time) error {
		p.VoiceEnabled = enabled
		return nil
	})
}
