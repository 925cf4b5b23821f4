package migrator

const migration_1 = `
CREATE TABLE <SCHEMA_PLACEHOLDER>.lb_logs(
    id uuid not null,
    user_id varchar not null,
    application varchar not null,
    logger varchar not null default(''),
    "timestamp" timestamptz not null,
    level varchar(16) not null,
    original_level varchar not null,
    value numeric default(null),
    message text not null,
    metadata jsonb default(null),
    created_at timestamptz not null default(now()),
    constraint pk_lb_logs primary key (id),
    constraint ck_lb_logs_level check (level in ('info', 'warning', 'error', 'debug')),
    constraint ck_lb_logs_required check (user_id <> '' and application <> '' and message <> '')
);
`
