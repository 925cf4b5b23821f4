package migrator

const migration_2 = `
CREATE INDEX idx_lb_logs_timestamp ON <SCHEMA_PLACEHOLDER>.lb_logs ("timestamp" DESC);
`
