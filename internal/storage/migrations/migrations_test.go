package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	pg, err := migrationFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_training_schemas.sql", "002_customer_snapshots.sql"}, pg)

	ch, err := migrationFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_customer_snapshots.sql"}, ch)
}

func TestStatements(t *testing.T) {
	in := `
-- first table
CREATE TABLE IF NOT EXISTS a (x String) ENGINE = Memory;

CREATE TABLE IF NOT EXISTS b (y String DEFAULT 'it''s; fine') ENGINE = Memory; -- trailing
`
	stmts, err := statements(in)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS a (x String) ENGINE = Memory",
		"CREATE TABLE IF NOT EXISTS b (y String DEFAULT 'it''s; fine') ENGINE = Memory",
	}, stmts)
}

func TestStatements_Errors(t *testing.T) {
	_, err := statements("CREATE TABLE a (x String);")
	assert.Error(t, err)

	_, err = statements("CREATE TABLE IF NOT EXISTS a (x String DEFAULT 'open);")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	for _, dir := range []struct {
		fsys fs.FS
		name string
	}{{PostgresFS, "postgres"}, {ClickhouseFS, "clickhouse"}} {
		files, err := migrationFiles(dir.fsys, dir.name)
		require.NoError(t, err)
		for _, f := range files {
			data, err := fs.ReadFile(dir.fsys, dir.name+"/"+f)
			require.NoError(t, err)
			stmts, err := statements(string(data))
			require.NoError(t, err, f)
			assert.NotEmpty(t, stmts, f)
		}
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/attrition")
	require.NoError(t, err)
	assert.Equal(t, "attrition", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN("clickhouse://localhost:9000/a`b")
	assert.Error(t, err)
}
