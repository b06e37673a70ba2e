package migrations

import "embed"

// PostgresFS holds the training schema and snapshot table migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the snapshot table migrations for ClickHouse.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
