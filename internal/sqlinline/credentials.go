package sqlinline

const QSelectCollaboratorCredential = `--sql 07901f69-3d3e-428f-a25e-699bcf47d7fc
select provider, token, header, updated_at
from collaborator_credentials
where provider = $1::text;
`

const QListCollaboratorCredentials = `--sql 2834300a-e80f-47e7-b110-3c5c8050e138
select provider, token, header, updated_at
from collaborator_credentials
order by provider;
`

const QUpsertCollaboratorCredential = `--sql f4f69ea2-7280-4430-99d2-4e1399e59cb4
insert into collaborator_credentials (provider, token, header, created_at, updated_at)
values ($1::text, $2::text, $3::text, now(), now())
on conflict (provider) do update set
    token = excluded.token,
    header = excluded.header,
    updated_at = now();
`

const QDeleteCollaboratorCredential = `--sql 5ab10f0c-dc97-4df0-bd60-b47abb0d7745
delete from collaborator_credentials
where provider = $1::text;
`
