package sqlinline

const QInsertSession = `--sql 239f38f1-5dc4-4793-a453-70ccfa4b961a
insert into sessions (id, budget_range, design_tips, item_replacement, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::jsonb, now(), now())
returning created_at, updated_at;
`

const QUpdateSession = `--sql c7c4a310-a7af-4e9d-b388-1a6230efd5b1
update sessions
set budget_range = $2::text,
    design_tips = $3::text,
    item_replacement = $4::jsonb,
    updated_at = now()
where id = $1::text
returning created_at, updated_at;
`

const QSelectSession = `--sql 27109ff8-8d3d-43fa-9426-5a3b35a1eb0e
select id, budget_range, design_tips, item_replacement, created_at, updated_at
from sessions
where id = $1::text;
`
