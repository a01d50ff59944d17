package sqlinline

const QIncrementDailyStats = `--sql 0bb95d79-5a0c-4dda-9d45-6dfde59428e5
insert into stats_daily (
    day, donations, donated_amount, requests_created, requests_approved, requests_rejected, requests_executed
) values (
    $1::date, $2::bigint, $3::bigint, $4::bigint, $5::bigint, $6::bigint, $7::bigint
) on conflict (day) do update set
    donations = stats_daily.donations + excluded.donations,
    donated_amount = stats_daily.donated_amount + excluded.donated_amount,
    requests_created = stats_daily.requests_created + excluded.requests_created,
    requests_approved = stats_daily.requests_approved + excluded.requests_approved,
    requests_rejected = stats_daily.requests_rejected + excluded.requests_rejected,
    requests_executed = stats_daily.requests_executed + excluded.requests_executed,
    updated_at = now();
`

const QStatsSummary = `--sql fa722f89-dfcd-4916-8c4c-136a70d37acf
select
    coalesce(sum(donations), 0),
    coalesce(sum(donated_amount), 0),
    coalesce(sum(requests_created), 0),
    coalesce(sum(requests_approved), 0),
    coalesce(sum(requests_rejected), 0),
    coalesce(sum(requests_executed), 0),
    coalesce(max(updated_at), to_timestamp(0))
from stats_daily;
`
