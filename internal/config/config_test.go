package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 15*time.Minute, cfg.AuditInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_RejectsZeroAuditInterval(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE", "memory")
	t.Setenv("AUDIT_INTERVAL", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "AUDIT_INTERVAL")
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "placeholder")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Setenv("STORAGE", "memory")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"postgres without dsn", Config{Storage: StoragePostgres, JWTTTL: time.Hour, AuditInterval: time.Minute}, true},
		{"postgres with dsn", Config{Storage: StoragePostgres, DBDSN: "postgres://x", JWTTTL: time.Hour, AuditInterval: time.Minute}, false},
		{"memory", Config{Storage: StorageMemory, JWTTTL: time.Hour, AuditInterval: time.Minute}, false},
		{"unknown storage", Config{Storage: "mongo", JWTTTL: time.Hour, AuditInterval: time.Minute}, true},
		{"zero ttl", Config{Storage: StorageMemory, AuditInterval: time.Minute}, true},
		{"zero audit interval", Config{Storage: StorageMemory, JWTTTL: time.Hour}, true},
		{"negative audit interval", Config{Storage: StorageMemory, JWTTTL: time.Hour, AuditInterval: -time.Second}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
