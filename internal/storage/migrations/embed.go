package migrations

import "embed"

// PostgresFS embeds the ledger schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the journal table migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
