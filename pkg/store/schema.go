package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the record and schema version tables. Documents are kept
// as JSON text so that filters can reach into them with json_extract.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    data TEXT NOT NULL CHECK (json_valid(data)),
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_collection_created ON records(collection, created_at);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertRecord = `INSERT INTO records (id, collection, data, created_at) VALUES (?, ?, ?, ?)`

const selectRecords = `SELECT id, collection, data, created_at FROM records`

const listCollections = `
SELECT collection, COUNT(*), MIN(created_at), MAX(created_at)
FROM records GROUP BY collection ORDER BY collection`
