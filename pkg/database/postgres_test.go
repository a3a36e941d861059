package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/minwon-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "minwon", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=minwon sslmode=disable", dsn)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationFS.ReadDir(migrationDir)
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)
}
