package sqlinline

// SQLite statements mirror the postgres ones with positional ? parameters.

const QSQLiteInsertJob = `--sql 9da1cdbf-77de-40ab-b499-d48b8dab36ec
INSERT INTO jobs (id, status, request_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?);
`

const QSQLiteUpdateJobStatus = `--sql 1cb10cfd-b2a8-4295-ab78-186f9adc76c1
UPDATE jobs
SET status = ?,
    error_message = COALESCE(?, error_message),
    result_json = COALESCE(?, result_json),
    updated_at = ?
WHERE id = ?
  AND status IN (?, ?);
`

const QSQLiteSelectJob = `--sql f2244bbb-7ad8-45a2-8601-2315cac1100c
SELECT id, status, request_json, result_json, error_message, created_at, updated_at
FROM jobs
WHERE id = ?;
`

// Writers are serialised by sqlite, so the subselect and update are atomic.
const QSQLiteClaimPendingJob = `--sql 0685c85c-fd73-47cb-b204-a6a6fc239e86
UPDATE jobs
SET status = 'running', updated_at = ?
WHERE id = (
    SELECT id FROM jobs
    WHERE status = 'pending'
    ORDER BY created_at ASC
    LIMIT 1
)
RETURNING id, status, request_json, result_json, error_message, created_at, updated_at;
`

const QSQLiteJobExists = `--sql 16147e0e-8bca-40f7-b0a3-83139831ac6e
SELECT COUNT(*) FROM jobs WHERE id = ?;
`

const QSQLiteInsertSession = `--sql 86f4ae2d-3df8-4ebc-9570-fb674879aee6
INSERT INTO sessions (id, budget_range, design_tips, item_replacement, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?);
`

const QSQLiteUpdateSession = `--sql 788cda56-1993-4665-974d-b7a343d30a1b
UPDATE sessions
SET budget_range = ?, design_tips = ?, item_replacement = ?, updated_at = ?
WHERE id = ?;
`

const QSQLiteSelectSession = `--sql 7eee77e7-57c4-4d0a-9aa0-d51df5a74bde
SELECT id, budget_range, design_tips, item_replacement, created_at, updated_at
FROM sessions
WHERE id = ?;
`

const QSQLiteInsertResult = `--sql 4d750ffb-ff0a-4f55-b945-faeec3756fbc
INSERT INTO results (id, session_id, payload, created_at)
VALUES (?, NULLIF(?, ''), ?, ?);
`

const QSQLiteSelectResult = `--sql 98cf79ac-e453-4b60-8c14-0f1191c63db4
SELECT id, COALESCE(session_id, ''), payload, created_at
FROM results
WHERE id = ?;
`
