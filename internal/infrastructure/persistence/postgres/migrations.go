// Package postgres implements PostgreSQL persistence layer for Axiom Hub.
package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_rating", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_hackathons", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_teams_and_messaging", UpSQL: migration004Up, DownSQL: migration004Down},
		{Version: 5, Name: "create_notifications", UpSQL: migration005Up, DownSQL: migration005Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001
-- Philosophy: "Ship With People You Match With"

-- Main users table
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    github_login VARCHAR(39) UNIQUE,
    bio TEXT NOT NULL DEFAULT '',
    location VARCHAR(100) NOT NULL DEFAULT '',
    skills TEXT[] NOT NULL DEFAULT '{}',
    roles TEXT[] NOT NULL DEFAULT '{}',
    repo_count INTEGER NOT NULL DEFAULT 0,
    hackathons_participated INTEGER NOT NULL DEFAULT 0,
    hackathons_top50 INTEGER NOT NULL DEFAULT 0,
    hackathons_top10 INTEGER NOT NULL DEFAULT 0,
    hackathons_first INTEGER NOT NULL DEFAULT 0,
    mmr INTEGER NOT NULL DEFAULT 0,
    tier_name VARCHAR(30) NOT NULL DEFAULT 'Bronze',
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    online_state VARCHAR(20) NOT NULL DEFAULT 'offline',
    last_seen_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_synced_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Notification preferences (JSONB for flexibility)
    preferences JSONB NOT NULL DEFAULT '{
        "tier_changes": true,
        "teamup_requests": true,
        "messages": true,
        "daily_digest": true,
        "quiet_hours_start": 23,
        "quiet_hours_end": 8
    }'::jsonb,

    -- Constraints for data integrity
    CONSTRAINT valid_status CHECK (status IN ('active', 'inactive', 'suspended', 'left')),
    CONSTRAINT valid_online_state CHECK (online_state IN ('online', 'away', 'offline')),
    CONSTRAINT valid_mmr CHECK (mmr >= 0),
    CONSTRAINT valid_counters CHECK (
        repo_count >= 0 AND hackathons_participated >= 0 AND
        hackathons_top50 >= 0 AND hackathons_top10 >= 0 AND hackathons_first >= 0
    )
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_github_login ON users(github_login) WHERE github_login IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_users_status ON users(status);
CREATE INDEX IF NOT EXISTS idx_users_mmr ON users(mmr DESC);
CREATE INDEX IF NOT EXISTS idx_users_last_synced ON users(last_synced_at) WHERE github_login IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_users_online_state ON users(online_state) WHERE online_state != 'offline';
CREATE INDEX IF NOT EXISTS idx_users_roles ON users USING GIN(roles);
CREATE INDEX IF NOT EXISTS idx_users_skills ON users USING GIN(skills);

-- Composite index for leaderboard queries
CREATE INDEX IF NOT EXISTS idx_users_active_mmr ON users(mmr DESC) WHERE status = 'active';

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

-- Apply trigger to users table
DROP TRIGGER IF EXISTS update_users_updated_at ON users;
CREATE TRIGGER update_users_updated_at
    BEFORE UPDATE ON users
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_users_updated_at ON users;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE RATING
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create rating history tables
-- Version: 002
-- Purpose: Track MMR changes over time for profile charts and audits

-- Rating snapshots - one row per recomputation
CREATE TABLE IF NOT EXISTS rating_snapshots (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    mmr INTEGER NOT NULL,
    tier_name VARCHAR(30) NOT NULL,
    repo_count INTEGER NOT NULL DEFAULT 0,
    hackathons_participated INTEGER NOT NULL DEFAULT 0,
    hackathons_top50 INTEGER NOT NULL DEFAULT 0,
    hackathons_top10 INTEGER NOT NULL DEFAULT 0,
    hackathons_first INTEGER NOT NULL DEFAULT 0,
    source VARCHAR(30) NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_snapshot_mmr CHECK (mmr >= 0),
    CONSTRAINT valid_snapshot_source CHECK (source IN ('github_sync', 'hackathon_result', 'rebuild'))
);

CREATE INDEX IF NOT EXISTS idx_rating_snapshots_user ON rating_snapshots(user_id);
CREATE INDEX IF NOT EXISTS idx_rating_snapshots_user_at ON rating_snapshots(user_id, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_rating_snapshots_at ON rating_snapshots(recorded_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS rating_snapshots;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE HACKATHONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create hackathon tables
-- Version: 003
-- Purpose: Events, registrations and results feeding the rating engine

CREATE TABLE IF NOT EXISTS hackathons (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    location VARCHAR(100) NOT NULL DEFAULT '',
    starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
    ends_at TIMESTAMP WITH TIME ZONE NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'upcoming',
    total_teams INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_hackathon_status CHECK (status IN ('upcoming', 'ongoing', 'finished', 'cancelled')),
    CONSTRAINT valid_schedule CHECK (ends_at > starts_at),
    CONSTRAINT valid_total_teams CHECK (total_teams >= 0)
);

CREATE INDEX IF NOT EXISTS idx_hackathons_status ON hackathons(status);
CREATE INDEX IF NOT EXISTS idx_hackathons_starts_at ON hackathons(starts_at);

-- Registrations: who signed up and with which roles
CREATE TABLE IF NOT EXISTS hackathon_registrations (
    id SERIAL PRIMARY KEY,
    hackathon_id UUID NOT NULL REFERENCES hackathons(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    roles TEXT[] NOT NULL DEFAULT '{}',
    registered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(hackathon_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_registrations_hackathon ON hackathon_registrations(hackathon_id);
CREATE INDEX IF NOT EXISTS idx_registrations_user ON hackathon_registrations(user_id);

-- Results: final placements, the input for rating recomputation
CREATE TABLE IF NOT EXISTS hackathon_results (
    id SERIAL PRIMARY KEY,
    hackathon_id UUID NOT NULL REFERENCES hackathons(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    placement INTEGER NOT NULL,
    total_teams INTEGER NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(hackathon_id, user_id),
    CONSTRAINT valid_placement CHECK (placement >= 1 AND placement <= total_teams)
);

CREATE INDEX IF NOT EXISTS idx_results_hackathon ON hackathon_results(hackathon_id);
CREATE INDEX IF NOT EXISTS idx_results_user ON hackathon_results(user_id, recorded_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS hackathon_results;
DROP TABLE IF EXISTS hackathon_registrations;
DROP TABLE IF EXISTS hackathons;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE TEAMS AND MESSAGING
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create teams, team-up requests and messaging tables
-- Version: 004
-- Philosophy: Matching only has value if it ends in an actual team

-- Teams assembled through the platform
CREATE TABLE IF NOT EXISTS teams (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    hackathon_id UUID REFERENCES hackathons(id) ON DELETE SET NULL,
    owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    max_members INTEGER NOT NULL DEFAULT 5,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_max_members CHECK (max_members >= 2)
);

CREATE INDEX IF NOT EXISTS idx_teams_owner ON teams(owner_id);
CREATE INDEX IF NOT EXISTS idx_teams_hackathon ON teams(hackathon_id) WHERE hackathon_id IS NOT NULL;

-- Team membership (owner included)
CREATE TABLE IF NOT EXISTS team_members (
    team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY(team_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_team_members_user ON team_members(user_id);

-- Team-up requests - the handshake before a team exists
CREATE TABLE IF NOT EXISTS teamup_requests (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    requester_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    addressee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    hackathon_id UUID REFERENCES hackathons(id) ON DELETE SET NULL,
    message TEXT NOT NULL DEFAULT '',
    compatibility_score INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
    responded_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT different_users CHECK (requester_id != addressee_id),
    CONSTRAINT valid_request_status CHECK (status IN ('pending', 'accepted', 'declined', 'expired', 'cancelled')),
    CONSTRAINT valid_score CHECK (compatibility_score >= 0 AND compatibility_score <= 100)
);

CREATE INDEX IF NOT EXISTS idx_teamup_addressee ON teamup_requests(addressee_id) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_teamup_requester ON teamup_requests(requester_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_teamup_expires ON teamup_requests(expires_at) WHERE status = 'pending';

-- Only one live request per pair at a time
CREATE UNIQUE INDEX IF NOT EXISTS idx_teamup_pending_pair
    ON teamup_requests(requester_id, addressee_id) WHERE status = 'pending';

-- Conversations: one per participant pair, canonical order enforced
CREATE TABLE IF NOT EXISTS conversations (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    participant_a UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    participant_b UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    last_message_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(participant_a, participant_b),
    CONSTRAINT canonical_pair CHECK (participant_a < participant_b)
);

CREATE INDEX IF NOT EXISTS idx_conversations_a ON conversations(participant_a, last_message_at DESC);
CREATE INDEX IF NOT EXISTS idx_conversations_b ON conversations(participant_b, last_message_at DESC);

CREATE TABLE IF NOT EXISTS messages (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    body TEXT NOT NULL,
    sent_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    read_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, sent_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(conversation_id, sender_id) WHERE read_at IS NULL;
`

const migration004Down = `
DROP TABLE IF EXISTS messages;
DROP TABLE IF EXISTS conversations;
DROP TABLE IF EXISTS teamup_requests;
DROP TABLE IF EXISTS team_members;
DROP TABLE IF EXISTS teams;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: CREATE NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
-- Migration: Create notifications table
-- Version: 005
-- Purpose: Durable delivery queue for in-app and email notifications

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    recipient_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type VARCHAR(40) NOT NULL,
    channel VARCHAR(20) NOT NULL DEFAULT 'in_app',
    priority SMALLINT NOT NULL DEFAULT 2,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    title VARCHAR(200) NOT NULL DEFAULT '',
    body TEXT NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    max_retries INTEGER NOT NULL DEFAULT 3,
    last_error TEXT NOT NULL DEFAULT '',
    sent_at TIMESTAMP WITH TIME ZONE,
    delivered_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_channel CHECK (channel IN ('in_app', 'email')),
    CONSTRAINT valid_priority CHECK (priority >= 1 AND priority <= 4),
    CONSTRAINT valid_notification_status CHECK (
        status IN ('pending', 'sending', 'delivered', 'failed', 'skipped', 'cancelled')
    )
);

CREATE INDEX IF NOT EXISTS idx_notifications_pending ON notifications(priority, created_at) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_undelivered ON notifications(recipient_id) WHERE channel = 'in_app' AND delivered_at IS NULL;
`

const migration005Down = `
DROP TABLE IF EXISTS notifications;
`
