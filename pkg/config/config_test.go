package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "secreto")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 1500*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, time.Duration(0), cfg.Sync.RetryInterval)
	assert.Equal(t, "secreto", cfg.Local.Secret, "sin LOCAL_SECRET se reutiliza JWT_SECRET")
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "127.0.0.1:8787", cfg.HTTP.Addr())
	assert.False(t, cfg.Sync.UsesMemory())
	assert.Empty(t, cfg.Admin.Email)
}

func TestFromViper_AlmacenEnMemoria(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "secreto")
	v.Set("SYNC_STORE", "MEMORY")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.True(t, cfg.Sync.UsesMemory())

	v.Set("SYNC_STORE", "mongo")
	_, err = fromViper(v)
	require.Error(t, err)
}

func TestFromViper_SinJWTSecretFalla(t *testing.T) {
	_, err := fromViper(viper.New())
	require.Error(t, err)
}

func TestGetDuration_FormatosAceptados(t *testing.T) {
	v := viper.New()
	v.Set("A", "250")
	v.Set("B", "2s")
	v.Set("C", "nope")

	assert.Equal(t, 250*time.Millisecond, getDuration(v, "A", time.Second))
	assert.Equal(t, 2*time.Second, getDuration(v, "B", time.Second))
	assert.Equal(t, time.Second, getDuration(v, "C", time.Second))
	assert.Equal(t, time.Minute, getDuration(v, "MISSING", time.Minute))
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/inv?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
