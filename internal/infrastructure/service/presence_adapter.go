package service

import (
	"context"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// PresenceAdapter exposes the Redis online tracker through the query-layer
// ports. Implements query.PresenceTracker and query.OnlineLister.
type PresenceAdapter struct {
	tracker *redis.OnlineTracker
}

// NewPresenceAdapter creates a presence adapter.
func NewPresenceAdapter(tracker *redis.OnlineTracker) *PresenceAdapter {
	return &PresenceAdapter{tracker: tracker}
}

// GetState returns the online state of a single user.
func (a *PresenceAdapter) GetState(ctx context.Context, userID shared.UserID) (shared.OnlineState, error) {
	state, err := a.tracker.GetState(ctx, userID.String())
	if err != nil {
		return shared.OnlineStateOffline, err
	}
	return toSharedState(state), nil
}

// GetStates returns online states for a batch of users.
func (a *PresenceAdapter) GetStates(ctx context.Context, userIDs []shared.UserID) (map[shared.UserID]shared.OnlineState, error) {
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	states, err := a.tracker.GetStates(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[shared.UserID]shared.OnlineState, len(states))
	for id, state := range states {
		out[shared.UserID(id)] = toSharedState(state)
	}
	return out, nil
}

// ListOnline returns all users currently online or away.
func (a *PresenceAdapter) ListOnline(ctx context.Context) (map[shared.UserID]shared.OnlineState, error) {
	infos, err := a.tracker.GetAllOnline(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[shared.UserID]shared.OnlineState, len(infos))
	for _, info := range infos {
		state := info.CalculateState()
		if !state.IsAvailable() {
			continue
		}
		out[shared.UserID(info.UserID)] = toSharedState(state)
	}
	return out, nil
}

// toSharedState maps tracker states to domain states. The string values
// match, the mapping keeps the type boundary explicit.
func toSharedState(s redis.OnlineState) shared.OnlineState {
	switch s {
	case redis.StateOnline:
		return shared.OnlineStateOnline
	case redis.StateAway:
		return shared.OnlineStateAway
	default:
		return shared.OnlineStateOffline
	}
}
