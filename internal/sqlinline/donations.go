package sqlinline

// The donation path runs inside a single transaction. The project row lock
// taken by QLockProjectForDonation serializes concurrent donations to the
// same project, so the target re-check, the unique-donor test and the
// counter increments observe a consistent snapshot.

const QLockProjectForDonation = `--sql 08d199c9-d1e7-4ec1-9a92-bce86d1eae48
select org_id, target_amount, current_amount, unique_donor_count, status, end_date
from projects
where id = $1::uuid
for update;
`

const QDonorExists = `--sql 91177c35-0527-42e1-98e1-a9969bd70a1b
select exists (
    select 1 from donations
    where project_id = $1::uuid and donor_id = $2::uuid
);
`

const QDonationProofUsed = `--sql 4fa6c2de-9be1-4c07-8f2d-0d3b51a7e4c9
select exists (
    select 1 from donations
    where tx_hash = $1::text
);
`

const QInsertDonation = `--sql e8d15569-92f7-4c04-ad6f-9ae91bf56011
insert into donations (id, project_id, donor_id, amount, tx_hash, donor_country, created_at)
values ($1::uuid, $2::uuid, $3::uuid, $4::bigint, $5::text, $6::text, now())
returning created_at;
`

const QApplyDonationToProject = `--sql 23b1fa71-9348-49d0-b514-da97fbaef089
update projects
set current_amount = current_amount + $2::bigint,
    unique_donor_count = unique_donor_count + (case when $3::bool then 1 else 0 end),
    updated_at = now()
where id = $1::uuid
returning current_amount, unique_donor_count;
`

const QFlipProjectActive = `--sql df5c372b-79ef-43ae-aa6c-75a158e728c2
update projects
set status = 'active', updated_at = now()
where id = $1::uuid
  and status = 'raising';
`

const QListDonationsByProject = `--sql 2d0ce4a6-f1ee-42b4-b469-f3bb50802557
select id, project_id, donor_id, amount, tx_hash, donor_country, created_at
from donations
where project_id = $1::uuid
order by created_at desc
limit $2::int;
`
