package sqlinline

// QSchemaPostgres creates the tables used by the postgres persistence mode.
const QSchemaPostgres = `--sql 85e60041-8bb1-4dec-bd37-499ef65982b6
create table if not exists jobs (
    id text primary key,
    status text not null check (status in ('pending', 'running', 'done', 'failed')),
    request_json jsonb not null,
    result_json jsonb,
    error_message text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists idx_jobs_pending on jobs (created_at) where status = 'pending';

create table if not exists sessions (
    id text primary key,
    budget_range text not null,
    design_tips text not null default '',
    item_replacement jsonb not null default '[]'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists results (
    id text primary key,
    session_id text references sessions (id),
    payload jsonb not null,
    created_at timestamptz not null default now()
);

create table if not exists collaborator_credentials (
    provider text primary key check (provider in ('gemini', 'detect', 'segment', 'condition', 'generate')),
    token text not null,
    header text not null default 'Authorization',
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

// QSchemaSQLite creates the same tables for the embedded sqlite mode.
// Timestamps are RFC 3339 text written by the repositories.
const QSchemaSQLite = `--sql c177bf0e-55a7-4fa4-a23f-4d1420de943d
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS jobs (
    id            TEXT PRIMARY KEY,
    status        TEXT NOT NULL CHECK (status IN ('pending', 'running', 'done', 'failed')),
    request_json  TEXT NOT NULL,
    result_json   TEXT,
    error_message TEXT,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status, created_at);

CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    budget_range     TEXT NOT NULL,
    design_tips      TEXT NOT NULL DEFAULT '',
    item_replacement TEXT NOT NULL DEFAULT '[]',
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id         TEXT PRIMARY KEY,
    session_id TEXT REFERENCES sessions (id),
    payload    TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`
