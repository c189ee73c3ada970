package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL creates the tables this service reads and updates. Intake of
// campaigns, influencers and submissions is owned upstream; the schema is
// kept here so a fresh database works end to end.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS influencers (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	wallet_address       TEXT NOT NULL UNIQUE,
	youtube_channel_id   TEXT,
	youtube_channel_name TEXT,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_influencers_channel ON influencers (youtube_channel_id);

CREATE TABLE IF NOT EXISTS campaigns (
	blockchain_id BIGINT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	requirements  TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS submissions (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	campaign_id         BIGINT NOT NULL,
	influencer_id       TEXT NOT NULL REFERENCES influencers (id),
	youtube_video_id    TEXT NOT NULL,
	youtube_url         TEXT NOT NULL,
	view_count          BIGINT NOT NULL DEFAULT 0 CHECK (view_count >= 0),
	like_count          BIGINT NOT NULL DEFAULT 0 CHECK (like_count >= 0),
	comment_count       BIGINT NOT NULL DEFAULT 0 CHECK (comment_count >= 0),
	performance_score   DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (performance_score >= 0),
	last_metrics_update TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_campaign_influencer ON submissions (campaign_id, influencer_id);
CREATE INDEX IF NOT EXISTS idx_submissions_campaign_score ON submissions (campaign_id, performance_score DESC);
CREATE INDEX IF NOT EXISTS idx_submissions_last_update ON submissions (last_metrics_update);
CREATE INDEX IF NOT EXISTS idx_submissions_video ON submissions (youtube_video_id);

CREATE OR REPLACE FUNCTION notify_submission_created() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('submission_created', NEW.youtube_video_id);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS submissions_notify_created ON submissions;
CREATE TRIGGER submissions_notify_created
	AFTER INSERT ON submissions
	FOR EACH ROW EXECUTE FUNCTION notify_submission_created();
`

// EnsureSchema applies schemaSQL. Every statement is idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
