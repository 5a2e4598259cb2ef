package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and A/B testing.
// Supports gradual rollout, user targeting, and tier-based experiments.
//
// Notifications are tuned for motivation, not spam: anything that could
// discourage a participant (rank-drop pings, low-compatibility nudges) is
// disabled by default.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Tier targeting (e.g., "Gold", "Platinum")
	// Empty means all tiers
	TargetTiers []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string // participant ID
	Tier    string // current rating tier (e.g., "Gold")
	IsAdmin bool   // is admin user
}

// Predefined feature flag names.
const (
	// === Matching Features (core of the product) ===
	FeatureMatchingSkillRelatedness = "matching.skill_relatedness" // partial credit for related skills
	FeatureMatchingLocationBonus    = "matching.location_bonus"    // same-location score bonus
	FeatureMatchingOnlineBoost      = "matching.online_boost"      // prefer online candidates

	// === Leaderboard Features ===
	FeatureLeaderboardRankChange   = "leaderboard.rank_change"   // Show rank changes (+2, -1)
	FeatureLeaderboardOnlineStatus = "leaderboard.online_status" // Show who's online

	// === Team-Up Features ===
	FeatureTeamUpAutoConversation = "teamup.auto_conversation" // open a conversation on accept
	FeatureTeamUpExpiryReminder   = "teamup.expiry_reminder"   // notify before a request expires

	// === Notification Features ===
	FeatureNotifyWelcome        = "notify.welcome"         // welcome after onboarding
	FeatureNotifyTeamUpReceived = "notify.teamup_received" // incoming team-up requests
	FeatureNotifyTierChange     = "notify.tier_change"     // promotions and demotions
	FeatureNotifyDailyDigest    = "notify.daily_digest"    // daily teammate suggestions
	FeatureNotifyRankDown       = "notify.rank_down"       // "X passed you"

	// === Experimental Features ===
	FeatureExperimentalRealtime  = "experimental.realtime"  // pub/sub fanout to live clients
	FeatureExperimentalAnalytics = "experimental.analytics" // advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Matching features - the product core, enabled by default
	ff.features[FeatureMatchingSkillRelatedness] = &Feature{
		Name:           FeatureMatchingSkillRelatedness,
		Description:    "Partial credit for related skills in compatibility scoring",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureMatchingLocationBonus] = &Feature{
		Name:           FeatureMatchingLocationBonus,
		Description:    "Score bonus for same-location candidates",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureMatchingOnlineBoost] = &Feature{
		Name:           FeatureMatchingOnlineBoost,
		Description:    "Rank online candidates higher for equal scores",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout
	}

	// Leaderboard features
	ff.features[FeatureLeaderboardRankChange] = &Feature{
		Name:           FeatureLeaderboardRankChange,
		Description:    "Show rank changes in leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardOnlineStatus] = &Feature{
		Name:           FeatureLeaderboardOnlineStatus,
		Description:    "Show online status indicators",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Team-up features
	ff.features[FeatureTeamUpAutoConversation] = &Feature{
		Name:           FeatureTeamUpAutoConversation,
		Description:    "Open a conversation when a team-up request is accepted",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTeamUpExpiryReminder] = &Feature{
		Name:           FeatureTeamUpExpiryReminder,
		Description:    "Notify the requester when their request expires",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notification features - carefully tuned to avoid spam
	ff.features[FeatureNotifyWelcome] = &Feature{
		Name:           FeatureNotifyWelcome,
		Description:    "Welcome notification after onboarding",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyTeamUpReceived] = &Feature{
		Name:           FeatureNotifyTeamUpReceived,
		Description:    "Notify about incoming team-up requests",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyTierChange] = &Feature{
		Name:           FeatureNotifyTierChange,
		Description:    "Notify about tier promotions and demotions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyDailyDigest] = &Feature{
		Name:           FeatureNotifyDailyDigest,
		Description:    "Daily teammate suggestions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyRankDown] = &Feature{
		Name:           FeatureNotifyRankDown,
		Description:    "Notify when someone passes you",
		Enabled:        false, // Disabled by default - can be demotivating
		RolloutPercent: 0,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalRealtime] = &Feature{
		Name:           FeatureExperimentalRealtime,
		Description:    "Pub/sub fanout of domain events to live clients",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_MATCHING_ONLINE_BOOST=true
// Example: FEATURE_NOTIFY_DAILY_DIGEST=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "matching.online_boost" -> "FEATURE_MATCHING_ONLINE_BOOST"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check tier targeting
	if len(feature.TargetTiers) > 0 && ctx != nil && ctx.Tier != "" {
		tierMatch := false
		for _, t := range feature.TargetTiers {
			if t == ctx.Tier {
				tierMatch = true
				break
			}
		}
		if !tierMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// NotificationsEnabled checks if any notifications are enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyWelcome, ctx) ||
		ff.IsEnabled(FeatureNotifyTeamUpReceived, ctx) ||
		ff.IsEnabled(FeatureNotifyTierChange, ctx) ||
		ff.IsEnabled(FeatureNotifyDailyDigest, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
