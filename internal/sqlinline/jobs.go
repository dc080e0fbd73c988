package sqlinline

const QInsertJob = `--sql 9874e279-cb09-4211-b454-9f12a2f6a189
insert into jobs (id, status, request_json, created_at, updated_at)
values ($1::text, $2::text, $3::jsonb, now(), now())
returning created_at, updated_at;
`

// QUpdateJobStatus only matches rows whose current status is $5 or $6, so a
// terminal job is never rewritten.
const QUpdateJobStatus = `--sql 83920c1e-915f-4515-b79c-eecc39083a73
update jobs
set status = $2::text,
    error_message = coalesce($3::text, error_message),
    result_json = coalesce($4::jsonb, result_json),
    updated_at = now()
where id = $1::text
  and status in ($5::text, $6::text);
`

const QSelectJob = `--sql 34c62646-7545-4a43-aae2-1136a8710aa4
select id, status, request_json, result_json, error_message, created_at, updated_at
from jobs
where id = $1::text;
`

const QClaimPendingJob = `--sql e4bc9ba6-7a61-463a-82c5-ca9a31585ccf
with next_job as (
    select id
    from jobs
    where status = 'pending'
    order by created_at asc
    for update skip locked
    limit 1
)
update jobs
set status = 'running', updated_at = now()
where id in (select id from next_job)
returning id, status, request_json, result_json, error_message, created_at, updated_at;
`
