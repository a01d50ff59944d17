package sqlinline

// QInsertExpenseRequest enforces the one-open-request rule and the approved
// spending budget in the same statement that inserts the row. The partial
// unique index uq_expense_requests_open backstops the NOT EXISTS guard
// against concurrent inserts.
const QInsertExpenseRequest = `--sql 0f555505-f3eb-441f-9fae-f168af09dbfb
insert into expense_requests
    (id, project_id, amount, status, executed, creation_tx_hash, document_ref, votes_for, votes_against, created_at, voting_deadline)
select $1::uuid, p.id, $3::bigint, 'voting', false, $4::text, $5::text, 0, 0, $6::timestamptz, $7::timestamptz
from projects p
where p.id = $2::uuid
  and p.status = 'active'
  and not exists (
      select 1 from expense_requests r
      where r.project_id = p.id
        and (r.status = 'voting' or (r.status = 'approved' and not r.executed))
  )
  and $3::bigint + (
      select coalesce(sum(r.amount), 0) from expense_requests r
      where r.project_id = p.id and r.status = 'approved'
  ) <= p.current_amount
returning id;
`

const QSelectExpenseByID = `--sql 5758e0f1-a557-4586-8210-1932c31c76d6
select id, project_id, amount, status, executed, creation_tx_hash,
       coalesce(execution_tx_hash, ''), document_ref, votes_for, votes_against,
       created_at, voting_deadline, resolved_at, executed_at
from expense_requests
where id = $1::uuid;
`

const QListExpensesByProject = `--sql 5f96789c-9b2f-49d4-a954-8cb0855b963a
select id, project_id, amount, status, executed, creation_tx_hash,
       coalesce(execution_tx_hash, ''), document_ref, votes_for, votes_against,
       created_at, voting_deadline, resolved_at, executed_at
from expense_requests
where project_id = $1::uuid
  and ($2::text = '' or status = $2::text)
order by created_at desc;
`

const QListVotingExpenses = `--sql eaddec59-fd76-4616-a589-d219979c1c34
select id, project_id, amount, status, executed, creation_tx_hash,
       coalesce(execution_tx_hash, ''), document_ref, votes_for, votes_against,
       created_at, voting_deadline, resolved_at, executed_at
from expense_requests
where status = 'voting'
order by created_at asc;
`

// QCastVote inserts the ballot and bumps the tally in one statement. The
// insert only fires while the request is still in its voting window, and
// ON CONFLICT DO NOTHING makes a repeat voter a no-op; the outer update
// only applies when the insert actually happened.
const QCastVote = `--sql d614162c-4da1-4acd-901c-4f58bb2523c2
with req as (
    select id from expense_requests
    where id = $1::uuid
      and status = 'voting'
      and not executed
      and voting_deadline >= $7::timestamptz
),
ballot as (
    insert into expense_votes (id, request_id, voter_id, choice, motivation, tx_hash, created_at)
    select $2::uuid, req.id, $3::uuid, $4::text, $5::text, $6::text, now()
    from req
    on conflict (request_id, voter_id) do nothing
    returning choice
)
update expense_requests r
set votes_for = r.votes_for + (case when (select choice from ballot) = 'for' then 1 else 0 end),
    votes_against = r.votes_against + (case when (select choice from ballot) = 'against' then 1 else 0 end)
where r.id = $1::uuid
  and exists (select 1 from ballot)
returning r.votes_for, r.votes_against;
`

const QSelectVote = `--sql a5bc9d91-a507-4803-addc-e6f43ff4070e
select id, request_id, voter_id, choice, motivation, tx_hash, created_at
from expense_votes
where request_id = $1::uuid and voter_id = $2::uuid;
`

const QResolveExpense = `--sql 97d7956d-4e45-4b8a-b464-0f4f313df304
update expense_requests
set status = $2::text, resolved_at = $3::timestamptz
where id = $1::uuid
  and status = 'voting';
`

const QMarkExpenseExecuted = `--sql bb426db0-9345-4e62-818a-e3de7ca93677
update expense_requests
set executed = true, execution_tx_hash = $2::text, executed_at = $3::timestamptz
where id = $1::uuid
  and status = 'approved'
  and not executed;
`
