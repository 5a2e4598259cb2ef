// Package saga contains complex business processes that orchestrate
// multiple domain operations in a coordinated manner.
// Sagas ensure consistency across operations and handle compensation on failures.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/rating"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA
// Complex business process: registration of a new participant.
// Flow: Validate → Check Existence → Fetch GitHub Profile → Create User →
//
//	Record Initial Rating → Send Welcome → Publish Event
//
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingInput contains all data required to onboard a new participant.
type OnboardingInput struct {
	// Email - login email (required).
	Email string

	// Password - plaintext password (required, hashed before storage).
	Password string

	// DisplayName - name shown to other participants (required).
	DisplayName string

	// GitHubLogin - GitHub account to link (optional).
	GitHubLogin string

	// Location - free-form location (optional).
	Location string

	// Skills - raw skill list (optional).
	Skills []string

	// Roles - team roles the participant can fill (optional).
	Roles []string
}

// Validate checks if the input is valid for onboarding.
func (i OnboardingInput) Validate() error {
	if !shared.Email(i.Email).IsValid() {
		return shared.ErrInvalidEmail
	}
	if len(i.Password) < 8 {
		return shared.ErrWeakPassword
	}
	if i.DisplayName == "" {
		return errors.New("onboarding: display name is required")
	}
	if i.GitHubLogin != "" && !shared.GitHubLogin(i.GitHubLogin).IsValid() {
		return shared.ErrInvalidGitHubLogin
	}
	return nil
}

// OnboardingResult contains the result of a successful onboarding.
type OnboardingResult struct {
	// User - the newly created participant.
	User *user.User

	// InitialMMR - rating computed from the first GitHub sync (0 without GitHub).
	InitialMMR int

	// TierName - starting tier.
	TierName string

	// WelcomeNotificationID - ID of the sent welcome notification.
	WelcomeNotificationID string

	// OnboardedAt - timestamp of successful onboarding.
	OnboardedAt time.Time
}

// OnboardingStep represents a step in the onboarding process.
type OnboardingStep string

const (
	StepValidateInput  OnboardingStep = "validate_input"
	StepCheckExistence OnboardingStep = "check_existence"
	StepFetchGitHub    OnboardingStep = "fetch_github"
	StepCreateUser     OnboardingStep = "create_user"
	StepRecordRating   OnboardingStep = "record_rating"
	StepSendWelcome    OnboardingStep = "send_welcome"
	StepPublishEvent   OnboardingStep = "publish_event"
	StepComplete       OnboardingStep = "complete"
)

// OnboardingState tracks the current state of the onboarding saga.
type OnboardingState struct {
	CurrentStep   OnboardingStep
	Input         OnboardingInput
	User          *user.User
	GitHubProfile *command.GitHubProfile
	StartedAt     time.Time
	CompletedAt   *time.Time
	Error         error
	FailedStep    OnboardingStep
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	// GenerateID generates a new unique ID.
	GenerateID() string
}

// WelcomeSender delivers the welcome notification.
type WelcomeSender interface {
	// SendWelcome sends a welcome notification, returns its ID.
	SendWelcome(ctx context.Context, recipientID shared.UserID, displayName string) (notification.NotificationID, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSaga orchestrates the complete registration process.
// It follows the Saga pattern to ensure consistency across multiple operations.
//
// Philosophy: onboarding is the first touchpoint with the platform. A linked
// GitHub account gives the participant a non-zero rating from minute one,
// which makes the first teammate search meaningful.
type OnboardingSaga struct {
	userRepo     user.Repository
	ratingRepo   rating.Repository
	githubClient command.GitHubClient
	welcome      WelcomeSender
	eventBus     shared.EventPublisher
	idGenerator  IDGenerator

	bcryptCost    int
	githubTimeout time.Duration
}

// OnboardingSagaConfig contains configuration for the onboarding saga.
type OnboardingSagaConfig struct {
	// BcryptCost - password hashing cost (0 = bcrypt.DefaultCost).
	BcryptCost int

	// GitHubTimeout - budget for the initial profile fetch.
	GitHubTimeout time.Duration
}

// DefaultOnboardingConfig returns default configuration.
func DefaultOnboardingConfig() OnboardingSagaConfig {
	return OnboardingSagaConfig{
		BcryptCost:    bcrypt.DefaultCost,
		GitHubTimeout: 10 * time.Second,
	}
}

// NewOnboardingSaga creates a new onboarding saga with all dependencies.
func NewOnboardingSaga(
	userRepo user.Repository,
	ratingRepo rating.Repository,
	githubClient command.GitHubClient,
	welcome WelcomeSender,
	eventBus shared.EventPublisher,
	idGenerator IDGenerator,
	config OnboardingSagaConfig,
) *OnboardingSaga {
	cost := config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	timeout := config.GitHubTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OnboardingSaga{
		userRepo:      userRepo,
		ratingRepo:    ratingRepo,
		githubClient:  githubClient,
		welcome:       welcome,
		eventBus:      eventBus,
		idGenerator:   idGenerator,
		bcryptCost:    cost,
		githubTimeout: timeout,
	}
}

// Execute runs the complete onboarding process.
func (s *OnboardingSaga) Execute(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	state := &OnboardingState{
		CurrentStep: StepValidateInput,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	// Step 1: Validate input.
	if err := input.Validate(); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 2: Check the email is free.
	state.CurrentStep = StepCheckExistence
	if err := s.stepCheckExistence(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 3: Fetch GitHub profile (optional, failure is non-fatal).
	state.CurrentStep = StepFetchGitHub
	s.stepFetchGitHub(ctx, state)

	// Step 4: Create the user aggregate.
	state.CurrentStep = StepCreateUser
	if err := s.stepCreateUser(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 5: Record the initial rating snapshot.
	state.CurrentStep = StepRecordRating
	if err := s.stepRecordRating(ctx, state); err != nil {
		s.rollbackUserCreation(ctx, state)
		return nil, s.wrapError(state, err)
	}

	// Step 6: Send welcome notification (non-critical).
	state.CurrentStep = StepSendWelcome
	welcomeID := s.stepSendWelcome(ctx, state)

	// Step 7: Publish domain event (non-critical, events can be replayed).
	state.CurrentStep = StepPublishEvent
	s.stepPublishEvent(state)

	state.CurrentStep = StepComplete
	now := time.Now().UTC()
	state.CompletedAt = &now

	return &OnboardingResult{
		User:                  state.User,
		InitialMMR:            state.User.MMR.Int(),
		TierName:              state.User.TierName,
		WelcomeNotificationID: welcomeID,
		OnboardedAt:           now,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Steps
// ─────────────────────────────────────────────────────────────────────────────

func (s *OnboardingSaga) stepCheckExistence(ctx context.Context, state *OnboardingState) error {
	email := shared.Email(state.Input.Email).Normalize()
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return shared.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("check existence: %w", err)
	}
	return nil
}

func (s *OnboardingSaga) stepFetchGitHub(ctx context.Context, state *OnboardingState) {
	if state.Input.GitHubLogin == "" || s.githubClient == nil {
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.githubTimeout)
	defer cancel()

	profile, err := s.githubClient.GetUser(fetchCtx, state.Input.GitHubLogin)
	if err != nil {
		// Профиль подтянется первым фоновым sync.
		return
	}
	state.GitHubProfile = profile
}

func (s *OnboardingSaga) stepCreateUser(ctx context.Context, state *OnboardingState) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(state.Input.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:           shared.UserID(s.idGenerator.GenerateID()),
		Email:        shared.Email(state.Input.Email),
		PasswordHash: string(hash),
		DisplayName:  state.Input.DisplayName,
		GitHubLogin:  shared.GitHubLogin(state.Input.GitHubLogin),
		Location:     shared.Location(state.Input.Location).Normalize(),
		Skills:       shared.NormalizeSkills(state.Input.Skills),
		Roles:        normalizeRoles(state.Input.Roles),
	})
	if err != nil {
		return err
	}

	if state.GitHubProfile != nil {
		u.ApplyGitHubSync(state.GitHubProfile.PublicRepos)
	}

	if err := s.userRepo.Save(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	state.User = u
	return nil
}

func (s *OnboardingSaga) stepRecordRating(ctx context.Context, state *OnboardingState) error {
	snapshot := rating.Snapshot{
		ID:         s.idGenerator.GenerateID(),
		UserID:     state.User.ID,
		MMR:        state.User.MMR,
		TierName:   state.User.TierName,
		Counters:   state.User.Counters,
		Source:     rating.SourceRebuild,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.ratingRepo.SaveSnapshot(ctx, &snapshot); err != nil {
		return fmt.Errorf("record rating: %w", err)
	}
	return nil
}

func (s *OnboardingSaga) stepSendWelcome(ctx context.Context, state *OnboardingState) string {
	if s.welcome == nil {
		return ""
	}
	id, err := s.welcome.SendWelcome(ctx, state.User.ID, state.User.DisplayName)
	if err != nil {
		return ""
	}
	return id.String()
}

func (s *OnboardingSaga) stepPublishEvent(state *OnboardingState) {
	event := shared.NewUserRegisteredEvent(
		state.User.ID.String(),
		state.User.Email.String(),
		state.User.DisplayName,
		state.User.GitHubLogin.String(),
	)
	_ = s.eventBus.Publish(event)
}

// ─────────────────────────────────────────────────────────────────────────────
// Compensation
// ─────────────────────────────────────────────────────────────────────────────

// rollbackUserCreation soft-deletes the user created earlier in the saga.
func (s *OnboardingSaga) rollbackUserCreation(ctx context.Context, state *OnboardingState) {
	if state.User == nil {
		return
	}
	state.User.Leave()
	_ = s.userRepo.Save(ctx, state.User)
}

func (s *OnboardingSaga) wrapError(state *OnboardingState, err error) error {
	state.Error = err
	state.FailedStep = state.CurrentStep
	return fmt.Errorf("onboarding failed at step %q: %w", state.CurrentStep, err)
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
