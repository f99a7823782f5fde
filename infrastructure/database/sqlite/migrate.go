package sqlite

import "context"

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	job_id        TEXT NOT NULL,
	advertiser_id TEXT NOT NULL,
	sheet_name    TEXT NOT NULL,
	status        TEXT NOT NULL,
	artifact_url  TEXT NOT NULL DEFAULT '',
	row_count     INTEGER NOT NULL DEFAULT 0,
	request       TEXT NOT NULL DEFAULT '{}',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_job_id ON runs (job_id);
`

// migrate applies the embedded schema. The database is a single local file,
// so there is no separate migration tooling.
func (c *Connection) migrate(ctx context.Context) error {
	_, err := c.DB.ExecContext(ctx, runsSchema)
	return err
}
