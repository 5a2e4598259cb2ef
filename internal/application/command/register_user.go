// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Регистрирует нового участника платформы. Email уникален; GitHub аккаунт
// можно привязать сразу или позже.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand содержит данные для регистрации.
type RegisterUserCommand struct {
	// Email - адрес для входа (обязателен).
	Email string

	// Password - пароль в открытом виде (хешируется перед сохранением).
	Password string

	// DisplayName - отображаемое имя.
	DisplayName string

	// GitHubLogin - GitHub аккаунт (опционально).
	GitHubLogin string

	// Location - локация (опционально).
	Location string

	// Skills - навыки в сыром виде.
	Skills []string

	// Roles - роли в команде.
	Roles []string

	// CorrelationID для трассировки.
	CorrelationID string
}

// minPasswordLen - минимальная длина пароля.
const minPasswordLen = 8

// Validate проверяет корректность команды.
func (c RegisterUserCommand) Validate() error {
	if !shared.Email(c.Email).IsValid() {
		return shared.ErrInvalidEmail
	}
	if len(c.Password) < minPasswordLen {
		return shared.ErrWeakPassword
	}
	if c.DisplayName == "" {
		return errors.New("register_user: display_name is required")
	}
	return nil
}

// RegisterUserResult содержит результат регистрации.
type RegisterUserResult struct {
	// UserID - ID созданного участника.
	UserID string

	// TierName - стартовый тир.
	TierName string
}

// ─────────────────────────────────────────────────────────────────────────────
// Dependencies
// ─────────────────────────────────────────────────────────────────────────────

// PasswordHasher хеширует и проверяет пароли.
type PasswordHasher interface {
	// Hash возвращает хеш пароля.
	Hash(password string) (string, error)

	// Compare сверяет пароль с хешем.
	Compare(hash, password string) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// RegisterUserHandler обрабатывает RegisterUserCommand.
type RegisterUserHandler struct {
	userRepo       user.Repository
	hasher         PasswordHasher
	eventPublisher shared.EventPublisher
}

// NewRegisterUserHandler создаёт обработчик регистрации.
func NewRegisterUserHandler(
	userRepo user.Repository,
	hasher PasswordHasher,
	eventPublisher shared.EventPublisher,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		userRepo:       userRepo,
		hasher:         hasher,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет регистрацию.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	email := shared.Email(cmd.Email).Normalize()

	// Проверка уникальности email.
	if existing, err := h.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, shared.ErrUserAlreadyExists
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("register_user: check email: %w", err)
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("register_user: hash password: %w", err)
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:           shared.UserID(uuid.NewString()),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  cmd.DisplayName,
		GitHubLogin:  shared.GitHubLogin(cmd.GitHubLogin),
		Location:     shared.Location(cmd.Location).Normalize(),
		Skills:       shared.NormalizeSkills(cmd.Skills),
		Roles:        normalizeRoles(cmd.Roles),
	})
	if err != nil {
		return nil, err
	}

	if err := h.userRepo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("register_user: save user: %w", err)
	}

	event := shared.NewUserRegisteredEvent(u.ID.String(), u.Email.String(), u.DisplayName, u.GitHubLogin.String())
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	// Регистрация уже состоялась, сбой публикации события не откатывает её.
	_ = h.eventPublisher.Publish(event)

	return &RegisterUserResult{
		UserID:   u.ID.String(),
		TierName: u.TierName,
	}, nil
}

// normalizeRoles приводит роли к каноничному виду, отбрасывая пустые.
func normalizeRoles(raw []string) []shared.Role {
	out := make([]shared.Role, 0, len(raw))
	for _, r := range raw {
		n := shared.Role(r).Normalize()
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
