package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umit144/subscriber-provisioner/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "open5gs", cfg.MongoDB)
	assert.Equal(t, "subscribers", cfg.MongoCollection)
	assert.Equal(t, services.StrategyDeleteInsert, cfg.Strategy)
	assert.Equal(t, 10*time.Second, cfg.OperationTimeout)
	assert.Empty(t, cfg.MySQLDSN)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.DeriveOPc)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://core-db:27017")
	t.Setenv("PROVISION_STRATEGY", string(services.StrategyUpsert))
	t.Setenv("DERIVE_OPC", "true")
	t.Setenv("OPERATION_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("LOG_MAX_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://core-db:27017", cfg.MongoURI)
	assert.Equal(t, services.StrategyUpsert, cfg.Strategy)
	assert.True(t, cfg.DeriveOPc)
	assert.Equal(t, 3*time.Second, cfg.OperationTimeout)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 10, cfg.LogMaxSize)
}

func TestLoadConfigLeavesValidationToCaller(t *testing.T) {
	t.Setenv("PROVISION_STRATEGY", "merge")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, services.Strategy("merge"), cfg.Strategy)
	assert.ErrorContains(t, cfg.Validate(), `unknown provisioning strategy "merge"`)

	cfg.Strategy = services.StrategyUpsert
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{name: "defaults"},
		{name: "unknown strategy", mutate: func(c *Config) { c.Strategy = "merge" }, msg: "unknown provisioning strategy"},
		{name: "no collection", mutate: func(c *Config) { c.MongoCollection = "" }, msg: "collection are required"},
		{name: "zero timeout", mutate: func(c *Config) { c.OperationTimeout = 0 }, msg: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			require.NoError(t, err)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err = cfg.Validate()
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
