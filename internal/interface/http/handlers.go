// Package http implements the REST API for Axiom Hub.
package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/internal/application/query"
	"github.com/axiom-hq/axiom-hub/internal/application/saga"
	"github.com/axiom-hq/axiom-hub/internal/domain/conversation"
	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/team"
	"github.com/axiom-hq/axiom-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Axiom Hub API",
		"version":     "v1",
		"description": "REST API for Axiom Hub - teammate matching for hackathons",
		"endpoints": map[string]string{
			"health":      "/health",
			"register":    "/api/v1/auth/register",
			"teammates":   "/api/v1/teammates",
			"leaderboard": "/api/v1/leaderboard",
			"online":      "/api/v1/users/online",
			"stats":       "/api/v1/stats",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	DisplayName string   `json:"display_name"`
	GitHubLogin string   `json:"github_login,omitempty"`
	Location    string   `json:"location,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.deps.Onboarding == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Registration is not configured")
		return
	}

	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	result, err := s.deps.Onboarding.Execute(r.Context(), saga.OnboardingInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		GitHubLogin: req.GitHubLogin,
		Location:    req.Location,
		Skills:      req.Skills,
		Roles:       req.Roles,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":      string(result.User.ID),
		"display_name": result.User.DisplayName,
		"initial_mmr":  result.InitialMMR,
		"tier_name":    result.TierName,
		"onboarded_at": result.OnboardedAt,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Authentication is not configured")
		return
	}

	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	token, u, err := s.deps.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":        token,
		"user_id":      string(u.ID),
		"display_name": u.DisplayName,
		"mmr":          u.MMR.Int(),
		"tier_name":    u.TierName,
	})
}

// handleLogout handles POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r.Context())
	if err := s.deps.Auth.SignOut(r.Context(), token); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetOwnProfile handles GET /api/v1/users/me
func (s *Server) handleGetOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := currentUserID(r.Context())
	s.serveProfile(w, r, string(userID))
}

// handleGetUser handles GET /api/v1/users/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}
	s.serveProfile(w, r, userID)
}

// serveProfile is the shared implementation for profile endpoints.
func (s *Server) serveProfile(w http.ResponseWriter, r *http.Request, userID string) {
	if s.deps.GetProfileHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}

	q := query.GetProfileQuery{
		UserID:         userID,
		IncludeHistory: getQueryParamBool(r, "include_history"),
		HistoryDays:    getQueryParamInt(r, "history_days", 30),
	}

	result, err := s.deps.GetProfileHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type updateProfileRequest struct {
	DisplayName *string  `json:"display_name,omitempty"`
	Bio         *string  `json:"bio,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// handleUpdateProfile handles PATCH /api/v1/users/me
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.UpdateProfileHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}

	userID, _ := currentUserID(r.Context())

	var req updateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.UpdateProfileCommand{
		UserID:      string(userID),
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Location:    req.Location,
		Skills:      req.Skills,
		Roles:       req.Roles,
	}

	if err := s.deps.UpdateProfileHandler.Handle(r.Context(), cmd); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleGitHubSync handles POST /api/v1/users/me/github-sync
func (s *Server) handleGitHubSync(w http.ResponseWriter, r *http.Request) {
	if s.deps.SyncGitHubHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "GitHub sync is not configured")
		return
	}

	userID, _ := currentUserID(r.Context())

	cmd := command.SyncGitHubActivityCommand{
		UserID:        string(userID),
		ForceSync:     getQueryParamBool(r, "force"),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.SyncGitHubHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"was_updated":    result.WasUpdated,
		"old_repo_count": result.OldRepoCount,
		"new_repo_count": result.NewRepoCount,
		"old_mmr":        result.OldMMR,
		"new_mmr":        result.NewMMR,
		"tier_changed":   result.TierChanged,
		"synced_at":      result.SyncedAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING & LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleFindTeammates handles GET /api/v1/teammates
func (s *Server) handleFindTeammates(w http.ResponseWriter, r *http.Request) {
	if s.deps.FindTeammatesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Matching handler not configured")
		return
	}

	userID, _ := currentUserID(r.Context())

	q := query.FindTeammatesQuery{
		RequesterID:      string(userID),
		Roles:            getQueryParamList(r, "roles"),
		Skills:           getQueryParamList(r, "skills"),
		RatingMin:        getQueryParamInt(r, "rating_min", 0),
		RatingMax:        getQueryParamInt(r, "rating_max", 0),
		Location:         getQueryParam(r, "location", ""),
		MinCompatibility: getQueryParamInt(r, "min_compatibility", 0),
		OnlineOnly:       getQueryParamBool(r, "online_only"),
		Limit:            getQueryParamInt(r, "limit", 10),
	}

	result, err := s.deps.FindTeammatesHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCandidates,
		PageSize:   q.Limit,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Limit:        getQueryParamInt(r, "limit", 25),
		Offset:       getQueryParamInt(r, "offset", 0),
		AroundUserID: getQueryParam(r, "around", ""),
		AroundRadius: getQueryParamInt(r, "radius", 0),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	meta := &ResponseMeta{
		TotalCount: len(result.Rows),
		PageSize:   q.Limit,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetOnline handles GET /api/v1/users/online
func (s *Server) handleGetOnline(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetOnlineNowHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Online handler not configured")
		return
	}

	q := query.GetOnlineNowQuery{
		Limit:       getQueryParamInt(r, "limit", 50),
		IncludeAway: getQueryParamBool(r, "include_away"),
	}

	result, err := s.deps.GetOnlineNowHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// TEAM-UP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type sendTeamUpRequest struct {
	AddresseeID string `json:"addressee_id"`
	HackathonID string `json:"hackathon_id,omitempty"`
	Message     string `json:"message,omitempty"`
}

// handleSendTeamUp handles POST /api/v1/teamups
func (s *Server) handleSendTeamUp(w http.ResponseWriter, r *http.Request) {
	if s.deps.SendTeamUpHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Team-up handler not configured")
		return
	}

	userID, _ := currentUserID(r.Context())

	var req sendTeamUpRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.SendTeamUpRequestCommand{
		RequesterID:   string(userID),
		AddresseeID:   req.AddresseeID,
		HackathonID:   req.HackathonID,
		Message:       req.Message,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.SendTeamUpHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"request_id":          result.RequestID,
		"compatibility_score": result.CompatibilityScore,
	})
}

type respondTeamUpRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason,omitempty"`
}

// handleRespondTeamUp handles POST /api/v1/teamups/{id}/respond
func (s *Server) handleRespondTeamUp(w http.ResponseWriter, r *http.Request) {
	if s.deps.RespondTeamUpHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Team-up handler not configured")
		return
	}

	requestID := r.PathValue("id")
	if requestID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request ID is required")
		return
	}

	userID, _ := currentUserID(r.Context())

	var req respondTeamUpRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.RespondTeamUpRequestCommand{
		RequestID:     requestID,
		ResponderID:   string(userID),
		Accept:        req.Accept,
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RespondTeamUpHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          string(result.Status),
		"conversation_id": result.ConversationID,
	})
}

// teamUpView is the JSON shape of a team-up request.
type teamUpView struct {
	ID                 string     `json:"id"`
	RequesterID        string     `json:"requester_id"`
	AddresseeID        string     `json:"addressee_id"`
	HackathonID        string     `json:"hackathon_id,omitempty"`
	Message            string     `json:"message,omitempty"`
	CompatibilityScore int        `json:"compatibility_score"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	ExpiresAt          time.Time  `json:"expires_at"`
	RespondedAt        *time.Time `json:"responded_at,omitempty"`
}

func toTeamUpView(r *team.TeamUpRequest) teamUpView {
	v := teamUpView{
		ID:                 r.ID,
		RequesterID:        string(r.RequesterID),
		AddresseeID:        string(r.AddresseeID),
		HackathonID:        string(r.HackathonID),
		Message:            r.Message,
		CompatibilityScore: r.CompatibilityScore,
		Status:             string(r.Status),
		CreatedAt:          r.CreatedAt,
		ExpiresAt:          r.ExpiresAt,
	}
	if !r.RespondedAt.IsZero() {
		responded := r.RespondedAt
		v.RespondedAt = &responded
	}
	return v
}

// handleIncomingTeamUps handles GET /api/v1/teamups/incoming
func (s *Server) handleIncomingTeamUps(w http.ResponseWriter, r *http.Request) {
	if s.deps.TeamRepo == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Team repository not configured")
		return
	}

	userID, _ := currentUserID(r.Context())
	limit := getQueryParamInt(r, "limit", 50)

	requests, err := s.deps.TeamRepo.ListRequestsForUser(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]teamUpView, 0, len(requests))
	for _, req := range requests {
		views = append(views, toTeamUpView(req))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": views})
}

// handleOutgoingTeamUps handles GET /api/v1/teamups/outgoing
func (s *Server) handleOutgoingTeamUps(w http.ResponseWriter, r *http.Request) {
	if s.deps.TeamRepo == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Team repository not configured")
		return
	}

	userID, _ := currentUserID(r.Context())
	limit := getQueryParamInt(r, "limit", 50)

	requests, err := s.deps.TeamRepo.ListRequestsByUser(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]teamUpView, 0, len(requests))
	for _, req := range requests {
		views = append(views, toTeamUpView(req))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": views})
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

// handleSendMessage handles POST /api/v1/messages
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if s.deps.SendMessageHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Message handler not configured")
		return
	}

	userID, _ := currentUserID(r.Context())

	var req sendMessageRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.SendMessageCommand{
		SenderID:      string(userID),
		RecipientID:   req.RecipientID,
		Body:          req.Body,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.SendMessageHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message_id":      result.MessageID,
		"conversation_id": result.ConversationID,
	})
}

// conversationView is the JSON shape of a conversation list entry.
type conversationView struct {
	ID            string    `json:"id"`
	PeerID        string    `json:"peer_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// handleListConversations handles GET /api/v1/conversations
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if s.deps.ConversationRepo == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Conversation repository not configured")
		return
	}

	userID, _ := currentUserID(r.Context())
	limit := getQueryParamInt(r, "limit", 50)

	conversations, err := s.deps.ConversationRepo.ListByParticipant(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]conversationView, 0, len(conversations))
	for _, c := range conversations {
		peer, _ := c.OtherParticipant(userID)
		views = append(views, conversationView{
			ID:            c.ID,
			PeerID:        string(peer),
			LastMessageAt: c.LastMessageAt,
			CreatedAt:     c.CreatedAt,
		})
	}

	unread, err := s.deps.ConversationRepo.CountUnread(r.Context(), userID)
	if err != nil {
		unread = 0
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": views,
		"unread_count":  unread,
	})
}

// messageView is the JSON shape of a message.
type messageView struct {
	ID        string     `json:"id"`
	SenderID  string     `json:"sender_id"`
	Body      string     `json:"body"`
	SentAt    time.Time  `json:"sent_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// handleListMessages handles GET /api/v1/conversations/{id}/messages
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if s.deps.ConversationRepo == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Conversation repository not configured")
		return
	}

	conversationID := r.PathValue("id")
	if conversationID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Conversation ID is required")
		return
	}

	userID, _ := currentUserID(r.Context())

	// Only participants may read the history.
	conv, err := s.deps.ConversationRepo.GetConversation(r.Context(), conversationID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !conv.HasParticipant(userID) {
		s.writeDomainError(w, r, shared.ErrNotParticipant)
		return
	}

	offset := getQueryParamInt(r, "offset", 0)
	limit := getQueryParamInt(r, "limit", 50)

	messages, err := s.deps.ConversationRepo.ListMessages(r.Context(), conversationID, offset, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if getQueryParamBool(r, "mark_read") {
		if _, err := s.deps.ConversationRepo.MarkRead(r.Context(), conversationID, userID); err != nil {
			s.logger.Warn("failed to mark messages read",
				logger.String("conversation_id", conversationID),
				logger.Err(err),
			)
		}
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, toMessageView(m))
	}

	meta := &ResponseMeta{
		Page:     offset/max(limit, 1) + 1,
		PageSize: limit,
		HasMore:  len(messages) == limit,
	}

	writeJSONWithMeta(w, r, http.StatusOK, map[string]interface{}{"messages": views}, meta)
}

func toMessageView(m *conversation.Message) messageView {
	v := messageView{
		ID:       m.ID,
		SenderID: string(m.SenderID),
		Body:     m.Body,
		SentAt:   m.SentAt,
	}
	if !m.ReadAt.IsZero() {
		read := m.ReadAt
		v.ReadAt = &read
	}
	return v
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION & PRESENCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// notificationView is the JSON shape of a notification.
type notificationView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// handleListNotifications handles GET /api/v1/notifications
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.NotificationRepo == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notification repository not configured")
		return
	}

	userID, _ := currentUserID(r.Context())
	offset := getQueryParamInt(r, "offset", 0)
	limit := getQueryParamInt(r, "limit", 50)

	notifications, err := s.deps.NotificationRepo.ListByRecipient(r.Context(), userID, offset, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, toNotificationView(n))
	}

	undelivered, err := s.deps.NotificationRepo.CountUndelivered(r.Context(), userID)
	if err != nil {
		undelivered = 0
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications":     views,
		"undelivered_count": undelivered,
	})
}

func toNotificationView(n *notification.Notification) notificationView {
	return notificationView{
		ID:        string(n.ID),
		Type:      string(n.Type),
		Channel:   string(n.Channel),
		Status:    string(n.Status),
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
	}
}

// handleHeartbeat handles POST /api/v1/presence/heartbeat
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Presence == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Presence tracking is not configured")
		return
	}

	userID, _ := currentUserID(r.Context())

	if err := s.deps.Presence.Heartbeat(r.Context(), string(userID)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMINISTRATIVE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type hackathonResultRequest struct {
	UserID    string `json:"user_id"`
	Placement int    `json:"placement"`
}

// handleRecordHackathonResult handles POST /api/v1/hackathons/{id}/results
func (s *Server) handleRecordHackathonResult(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordHackathonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Hackathon handler not configured")
		return
	}

	hackathonID := r.PathValue("id")
	if hackathonID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Hackathon ID is required")
		return
	}

	var req hackathonResultRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.RecordHackathonResultCommand{
		HackathonID:   hackathonID,
		UserID:        req.UserID,
		Placement:     req.Placement,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RecordHackathonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mmr_delta":    result.MMRDelta,
		"new_mmr":      result.NewMMR,
		"new_tier":     result.NewTier,
		"tier_changed": result.TierChanged,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStats handles GET /api/v1/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":  s.Uptime().String(),
			"running": s.IsRunning(),
		},
	}

	// Add online stats if handler is available
	if s.deps.GetOnlineNowHandler != nil {
		q := query.GetOnlineNowQuery{Limit: 1, IncludeAway: true}
		result, err := s.deps.GetOnlineNowHandler.Handle(r.Context(), q)
		if err == nil {
			stats["community"] = map[string]interface{}{
				"online_now": result.OnlineCount,
			}
		}
	}

	// Add leaderboard stats if handler is available
	if s.deps.GetLeaderboardHandler != nil {
		q := query.GetLeaderboardQuery{Limit: 1}
		result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
		if err == nil && len(result.Rows) > 0 {
			stats["leaderboard"] = map[string]interface{}{
				"top_mmr":  result.Rows[0].MMR,
				"top_tier": result.Rows[0].TierName,
			}
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// githubWebhookPayload is the subset of a GitHub delivery we read.
type githubWebhookPayload struct {
	Repository struct {
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// handleGitHubWebhook handles POST /webhooks/github.
// A push is only a hint that the sender's repo count may have changed;
// the actual sync runs in the background through the regular force path.
func (s *Server) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	if s.deps.SyncGitHubHandler == nil || s.deps.UserRepo == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "GitHub webhooks are not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Cannot read payload")
		return
	}

	if s.config.GitHubWebhookSecret != "" {
		if !verifyGitHubSignature(body, r.Header.Get("X-Hub-Signature-256"), s.config.GitHubWebhookSecret) {
			writeJSONError(w, http.StatusUnauthorized, "invalid_signature", "Signature verification failed")
			return
		}
	}

	switch r.Header.Get("X-GitHub-Event") {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
		return
	case "push", "repository", "public":
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	var payload githubWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	login := payload.Repository.Owner.Login
	if login == "" {
		login = payload.Sender.Login
	}
	if login == "" {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	u, err := s.deps.UserRepo.GetByGitHubLogin(r.Context(), shared.GitHubLogin(login).Normalize())
	if err != nil {
		// Пуш от аккаунта, не привязанного ни к одному участнику.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	correlationID := getRequestID(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cmd := command.SyncGitHubActivityCommand{
			UserID:        u.ID.String(),
			ForceSync:     true,
			CorrelationID: correlationID,
		}
		if _, err := s.deps.SyncGitHubHandler.Handle(ctx, cmd); err != nil && !errors.Is(err, command.ErrSyncedRecently) {
			s.logger.Warn("webhook-triggered sync failed",
				logger.UserID(u.ID.String()),
				logger.Err(err),
			)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync_scheduled"})
}

// verifyGitHubSignature checks the sha256= HMAC GitHub attaches to deliveries.
func verifyGitHubSignature(body []byte, header, secret string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header[len(prefix):]))
}
