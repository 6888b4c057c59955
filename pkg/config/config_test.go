package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	content := `
[sequencer]
window = 16

[engine]
rpc_listen_addr = "localhost:9000"

[[tokens]]
id = "USDC"
initial_balance = 1000
airdrop = ["0x1111111111111111111111111111111111111111"]
`

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := ReadFile(path)
	require.NoError(t, err)

	require.Equal(t, uint64(16), cfg.Sequencer.Window)
	require.Equal(t, "localhost:9000", cfg.Engine.RPCListenAddr)

	// Unset sections keep their defaults.
	require.Equal(t, 8, cfg.Engine.MaxConcurrency)
	require.Equal(t, 5432, cfg.DB.Port)
	require.False(t, cfg.DB.Enabled)

	require.Len(t, cfg.Tokens, 1)
	require.Equal(t, "USDC", cfg.Tokens[0].ID)
	require.Equal(t, uint64(1000), cfg.Tokens[0].InitialBalance)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USERNAME", "svc")
	t.Setenv("DB_PASSWORD", "secret")

	cfg := DefaultBaseConfig
	cfg.ApplyEnvOverrides()

	require.Equal(t, "db.internal", cfg.DB.Host)
	require.Equal(t, "svc", cfg.DB.Username)
	require.Equal(t, "secret", cfg.DB.Password)
}
