package database

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	cfg := PostgresConfig{
		Host:            "db.internal",
		Port:            5433,
		Database:        "patient_dashboard",
		User:            "audit",
		Password:        "p@ss/word",
		SSLMode:         "require",
		ApplicationName: "patient-dashboard",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "db.internal:5433")
	assert.NotContains(t, dsn, "p@ss/word")

	parsed, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "audit", parsed.ConnConfig.User)
	assert.Equal(t, "p@ss/word", parsed.ConnConfig.Password)
	assert.Equal(t, "patient_dashboard", parsed.ConnConfig.Database)
	assert.Equal(t, uint16(5433), parsed.ConnConfig.Port)
	assert.Equal(t, "patient-dashboard", parsed.ConnConfig.RuntimeParams["application_name"])
}
