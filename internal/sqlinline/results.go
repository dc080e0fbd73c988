package sqlinline

const QInsertResult = `--sql 3f400844-6e44-44fc-9a33-83988b070d50
insert into results (id, session_id, payload, created_at)
values ($1::text, nullif($2::text, ''), $3::jsonb, now())
returning created_at;
`

const QSelectResult = `--sql cb89c589-1cee-4d90-8572-8bb9578f0be1
select id, coalesce(session_id, ''), payload, created_at
from results
where id = $1::text;
`
