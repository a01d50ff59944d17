package sqlinline

const QInsertProject = `--sql f8aeebf8-a882-48a9-aad2-5482eebe8415
insert into projects (id, org_id, title, target_amount, current_amount, unique_donor_count, status, end_date, created_at, updated_at)
values ($1::uuid, $2::uuid, $3::text, $4::bigint, 0, 0, 'raising', $5::timestamptz, now(), now())
returning created_at, updated_at;
`

const QSelectProjectByID = `--sql 57c6ff9c-5e0e-41a0-bc40-3685d27c3d9e
select id, org_id, title, target_amount, current_amount, unique_donor_count, status, end_date, created_at, updated_at
from projects
where id = $1::uuid;
`

const QCancelProject = `--sql 2d807983-a3aa-4166-a0c1-8cb741f4c0cd
update projects
set status = 'cancelled', updated_at = now()
where id = $1::uuid
  and status = 'raising'
  and current_amount = 0;
`

const QActivateExpiredProjects = `--sql 2a308b3a-339e-4ada-a945-c9425dbf7c48
update projects
set status = 'active', updated_at = now()
where status = 'raising'
  and end_date <= $1::timestamptz;
`
