package hackathon

import (
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// Registration - заявка участника на хакатон.
type Registration struct {
	// HackathonID - хакатон.
	HackathonID shared.HackathonID

	// UserID - участник.
	UserID shared.UserID

	// Roles - роли, в которых участник готов выступить.
	Roles []shared.Role

	// RegisteredAt - время подачи заявки.
	RegisteredAt time.Time
}

// NewRegistration создаёт заявку. Регистрация открыта только до начала.
func (h *Hackathon) NewRegistration(userID shared.UserID, roles []shared.Role) (Registration, error) {
	if h.Status != StatusUpcoming {
		return Registration{}, shared.ErrHackathonClosed
	}
	if !userID.IsValid() {
		return Registration{}, shared.ErrInvalidID
	}

	normalized := make([]shared.Role, 0, len(roles))
	for _, r := range roles {
		normalized = append(normalized, r.Normalize())
	}

	return Registration{
		HackathonID:  h.ID,
		UserID:       userID,
		Roles:        normalized,
		RegisteredAt: time.Now().UTC(),
	}, nil
}
