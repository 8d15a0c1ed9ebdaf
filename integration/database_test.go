//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestSymnetWithMySQL tests the symnet CLI with a MySQL backend.
func TestSymnetWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "symnet",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/symnet?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestSymnetWithPostgres tests the symnet CLI with a PostgreSQL backend.
func TestSymnetWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario clears both stores, builds networks twice, and checks
// that the cache and the analysis history were written to the server.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Helper()
	home := t.TempDir()
	data := writeEMAFixture(t, 60, "S1", "S2")
	env := []string{
		"SYMNET_CACHE_BACKEND=" + backend,
		"SYMNET_CACHE_DB_CONNECT=" + connStr,
		"SYMNET_ANALYSIS_BACKEND=" + backend,
		"SYMNET_ANALYSIS_DB_CONNECT=" + connStr,
	}

	_, err := runSymnet(t, home, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runSymnet(t, home, env, "analysis", "clear")
	require.NoError(t, err)

	batch := []string{"batch", "--data", data, "--symptoms", "drive,follow", "--output", "csv"}
	_, err = runSymnet(t, home, env, batch...)
	require.NoError(t, err)
	_, err = runSymnet(t, home, env, batch...)
	require.NoError(t, err)

	cacheStatus, err := runSymnet(t, home, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, cacheStatus, "Cache Backend: "+backend)
	assert.Contains(t, cacheStatus, "Cached Networks: 2")

	analysisStatus, err := runSymnet(t, home, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, analysisStatus, "Total Runs: 2")
	assert.Contains(t, analysisStatus, "Total Networks: 4")

	_, err = runSymnet(t, home, env, "analysis", "migrate")
	require.NoError(t, err)
}
