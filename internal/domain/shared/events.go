// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// User events
	EventUserRegistered     EventType = "user.registered"
	EventUserProfileUpdated EventType = "user.profile_updated"
	EventUserDeactivated    EventType = "user.deactivated"
	EventUserReactivated    EventType = "user.reactivated"

	// Rating events
	EventMMRChanged  EventType = "rating.mmr_changed"
	EventTierChanged EventType = "rating.tier_changed"

	// Activity events
	EventGitHubSynced    EventType = "activity.github_synced"
	EventUserWentOnline  EventType = "activity.went_online"
	EventUserWentOffline EventType = "activity.went_offline"

	// Hackathon events
	EventHackathonRegistered EventType = "hackathon.registered"
	EventHackathonResult     EventType = "hackathon.result_recorded"

	// Team events
	EventTeamCreated      EventType = "team.created"
	EventTeamMemberJoined EventType = "team.member_joined"
	EventTeamUpRequested  EventType = "team.teamup_requested"
	EventTeamUpAccepted   EventType = "team.teamup_accepted"
	EventTeamUpDeclined   EventType = "team.teamup_declined"
	EventTeamUpExpired    EventType = "team.teamup_expired"

	// Conversation events
	EventMessageSent EventType = "conversation.message_sent"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"

	// System events
	EventSyncCompleted EventType = "system.sync_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a new user registers.
type UserRegisteredEvent struct {
	BaseEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	GitHubLogin string `json:"github_login,omitempty"`
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":        e.Email,
		"display_name": e.DisplayName,
		"github_login": e.GitHubLogin,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, email, displayName, githubLogin string) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventUserRegistered, userID),
		Email:       email,
		DisplayName: displayName,
		GitHubLogin: githubLogin,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Rating Events
// ═══════════════════════════════════════════════════════════════════════════

// MMRChangedEvent is emitted when a user's rating is recomputed to a new value.
type MMRChangedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	OldMMR int    `json:"old_mmr"`
	NewMMR int    `json:"new_mmr"`
	Source string `json:"source"` // e.g., "github_sync", "hackathon_result"
}

// Payload implements Event interface.
func (e MMRChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"old_mmr": e.OldMMR,
		"new_mmr": e.NewMMR,
		"source":  e.Source,
	}
}

// NewMMRChangedEvent creates a new MMRChangedEvent.
func NewMMRChangedEvent(userID string, oldMMR, newMMR int, source string) MMRChangedEvent {
	return MMRChangedEvent{
		BaseEvent: NewBaseEvent(EventMMRChanged, userID),
		UserID:    userID,
		OldMMR:    oldMMR,
		NewMMR:    newMMR,
		Source:    source,
	}
}

// TierChangedEvent is emitted when a rating change crosses a tier boundary.
type TierChangedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	OldTier string `json:"old_tier"`
	NewTier string `json:"new_tier"`
	NewMMR  int    `json:"new_mmr"`
	// Promoted is true when the user moved to a higher tier.
	Promoted bool `json:"promoted"`
}

// Payload implements Event interface.
func (e TierChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"old_tier": e.OldTier,
		"new_tier": e.NewTier,
		"new_mmr":  e.NewMMR,
		"promoted": e.Promoted,
	}
}

// NewTierChangedEvent creates a new TierChangedEvent.
func NewTierChangedEvent(userID, oldTier, newTier string, newMMR int, promoted bool) TierChangedEvent {
	return TierChangedEvent{
		BaseEvent: NewBaseEvent(EventTierChanged, userID),
		UserID:    userID,
		OldTier:   oldTier,
		NewTier:   newTier,
		NewMMR:    newMMR,
		Promoted:  promoted,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Events
// ═══════════════════════════════════════════════════════════════════════════

// GitHubSyncedEvent is emitted when a user's GitHub activity is synced.
type GitHubSyncedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	GitHubLogin   string `json:"github_login"`
	RepoCount     int    `json:"repo_count"`
	PrevRepoCount int    `json:"prev_repo_count"`
}

// Payload implements Event interface.
func (e GitHubSyncedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"github_login":    e.GitHubLogin,
		"repo_count":      e.RepoCount,
		"prev_repo_count": e.PrevRepoCount,
	}
}

// NewGitHubSyncedEvent creates a new GitHubSyncedEvent.
func NewGitHubSyncedEvent(userID, login string, repoCount, prevRepoCount int) GitHubSyncedEvent {
	return GitHubSyncedEvent{
		BaseEvent:     NewBaseEvent(EventGitHubSynced, userID),
		UserID:        userID,
		GitHubLogin:   login,
		RepoCount:     repoCount,
		PrevRepoCount: prevRepoCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Hackathon Events
// ═══════════════════════════════════════════════════════════════════════════

// HackathonResultEvent is emitted when a participant's final placement is recorded.
type HackathonResultEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	HackathonID string `json:"hackathon_id"`
	Placement   int    `json:"placement"`
	TotalTeams  int    `json:"total_teams"`
	FirstPlace  bool   `json:"first_place"`
	Top10       bool   `json:"top_10_percent"`
	Top50       bool   `json:"top_50_percent"`
}

// Payload implements Event interface.
func (e HackathonResultEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"hackathon_id":   e.HackathonID,
		"placement":      e.Placement,
		"total_teams":    e.TotalTeams,
		"first_place":    e.FirstPlace,
		"top_10_percent": e.Top10,
		"top_50_percent": e.Top50,
	}
}

// NewHackathonResultEvent creates a new HackathonResultEvent.
func NewHackathonResultEvent(userID, hackathonID string, placement, totalTeams int, first, top10, top50 bool) HackathonResultEvent {
	return HackathonResultEvent{
		BaseEvent:   NewBaseEvent(EventHackathonResult, userID),
		UserID:      userID,
		HackathonID: hackathonID,
		Placement:   placement,
		TotalTeams:  totalTeams,
		FirstPlace:  first,
		Top10:       top10,
		Top50:       top50,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Team Events
// ═══════════════════════════════════════════════════════════════════════════

// TeamUpRequestedEvent is emitted when a team-up request is sent.
type TeamUpRequestedEvent struct {
	BaseEvent
	RequestID    string   `json:"request_id"`
	SenderID     string   `json:"sender_id"`
	ReceiverID   string   `json:"receiver_id"`
	Score        int      `json:"score"`
	SkillsNeeded []string `json:"skills_needed,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Payload implements Event interface.
func (e TeamUpRequestedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"request_id":    e.RequestID,
		"sender_id":     e.SenderID,
		"receiver_id":   e.ReceiverID,
		"score":         e.Score,
		"skills_needed": e.SkillsNeeded,
		"message":       e.Message,
	}
}

// NewTeamUpRequestedEvent creates a new TeamUpRequestedEvent.
func NewTeamUpRequestedEvent(requestID, senderID, receiverID string, score int, skillsNeeded []string, message string) TeamUpRequestedEvent {
	return TeamUpRequestedEvent{
		BaseEvent:    NewBaseEvent(EventTeamUpRequested, requestID),
		RequestID:    requestID,
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Score:        score,
		SkillsNeeded: skillsNeeded,
		Message:      message,
	}
}

// TeamUpRespondedEvent is emitted when a team-up request is accepted or declined.
type TeamUpRespondedEvent struct {
	BaseEvent
	RequestID  string `json:"request_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e TeamUpRespondedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"request_id":  e.RequestID,
		"sender_id":   e.SenderID,
		"receiver_id": e.ReceiverID,
		"accepted":    e.Accepted,
		"reason":      e.Reason,
	}
}

// NewTeamUpRespondedEvent creates a new TeamUpRespondedEvent.
func NewTeamUpRespondedEvent(requestID, senderID, receiverID string, accepted bool, reason string) TeamUpRespondedEvent {
	evType := EventTeamUpDeclined
	if accepted {
		evType = EventTeamUpAccepted
	}
	return TeamUpRespondedEvent{
		BaseEvent:  NewBaseEvent(evType, requestID),
		RequestID:  requestID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Accepted:   accepted,
		Reason:     reason,
	}
}

// TeamUpExpiredEvent is emitted when a pending team-up request passes its
// deadline and is moved to expired by the background job.
type TeamUpExpiredEvent struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	RequesterID string `json:"requester_id"`
	AddresseeID string `json:"addressee_id"`
}

// Payload implements Event interface.
func (e TeamUpExpiredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"request_id":   e.RequestID,
		"requester_id": e.RequesterID,
		"addressee_id": e.AddresseeID,
	}
}

// NewTeamUpExpiredEvent creates a new TeamUpExpiredEvent.
func NewTeamUpExpiredEvent(requestID, requesterID, addresseeID string) TeamUpExpiredEvent {
	return TeamUpExpiredEvent{
		BaseEvent:   NewBaseEvent(EventTeamUpExpired, requestID),
		RequestID:   requestID,
		RequesterID: requesterID,
		AddresseeID: addresseeID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Conversation Events
// ═══════════════════════════════════════════════════════════════════════════

// MessageSentEvent is emitted when a direct message is stored. The realtime
// channel pushes this event to subscribed clients.
type MessageSentEvent struct {
	BaseEvent
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Body           string `json:"body"`
}

// Payload implements Event interface.
func (e MessageSentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"message_id":      e.MessageID,
		"conversation_id": e.ConversationID,
		"sender_id":       e.SenderID,
		"receiver_id":     e.ReceiverID,
		"body":            e.Body,
	}
}

// NewMessageSentEvent creates a new MessageSentEvent.
func NewMessageSentEvent(messageID, conversationID, senderID, receiverID, body string) MessageSentEvent {
	return MessageSentEvent{
		BaseEvent:      NewBaseEvent(EventMessageSent, conversationID),
		MessageID:      messageID,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// SyncCompletedEvent is emitted when a background sync run finishes.
type SyncCompletedEvent struct {
	BaseEvent
	JobName   string        `json:"job_name"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Payload implements Event interface.
func (e SyncCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"job_name":  e.JobName,
		"processed": e.Processed,
		"failed":    e.Failed,
		"duration":  e.Duration.String(),
	}
}

// NewSyncCompletedEvent creates a new SyncCompletedEvent.
func NewSyncCompletedEvent(jobName string, processed, failed int, duration time.Duration) SyncCompletedEvent {
	return SyncCompletedEvent{
		BaseEvent: NewBaseEvent(EventSyncCompleted, jobName),
		JobName:   jobName,
		Processed: processed,
		Failed:    failed,
		Duration:  duration,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
