package command

import (
	"context"
	"fmt"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// Обновляет редактируемые поля профиля. Навыки и локация напрямую влияют
// на качество подбора, поэтому после изменения пул кандидатов инвалидируется.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand содержит изменяемые поля профиля.
// nil-поля означают "не трогать".
type UpdateProfileCommand struct {
	// UserID - чей профиль обновляется.
	UserID string

	DisplayName *string
	Bio         *string
	Location    *string
	Skills      []string
	Roles       []string
}

// Validate проверяет корректность команды.
func (c UpdateProfileCommand) Validate() error {
	if !shared.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidID
	}
	return nil
}

// PoolInvalidator сбрасывает кеш пула кандидатов после изменения профиля.
type PoolInvalidator interface {
	// InvalidatePool удаляет закешированный пул кандидатов.
	InvalidatePool(ctx context.Context) error
}

// UpdateProfileHandler обрабатывает UpdateProfileCommand.
type UpdateProfileHandler struct {
	userRepo user.Repository
	pool     PoolInvalidator
}

// NewUpdateProfileHandler создаёт обработчик обновления профиля.
func NewUpdateProfileHandler(userRepo user.Repository, pool PoolInvalidator) *UpdateProfileHandler {
	return &UpdateProfileHandler{userRepo: userRepo, pool: pool}
}

// Handle выполняет обновление профиля.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	u, err := h.userRepo.GetByID(ctx, shared.UserID(cmd.UserID))
	if err != nil {
		return fmt.Errorf("update_profile: load user: %w", err)
	}

	params := user.UpdateProfileParams{
		DisplayName: cmd.DisplayName,
		Bio:         cmd.Bio,
	}
	if cmd.Location != nil {
		loc := shared.Location(*cmd.Location).Normalize()
		params.Location = &loc
	}
	if cmd.Skills != nil {
		params.Skills = shared.NormalizeSkills(cmd.Skills)
	}
	if cmd.Roles != nil {
		params.Roles = normalizeRoles(cmd.Roles)
	}

	if err := u.UpdateProfile(params); err != nil {
		return err
	}

	if err := h.userRepo.Save(ctx, u); err != nil {
		return fmt.Errorf("update_profile: save user: %w", err)
	}

	if h.pool != nil {
		_ = h.pool.InvalidatePool(ctx)
	}
	return nil
}
