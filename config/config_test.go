package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"clubchain/crypto"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "CPT", cfg.PaymentToken)
	require.Equal(t, uint64(10), cfg.OnTimePoints)

	_, err = os.Stat(path)
	require.NoError(t, err, "a default file should have been written")

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadRejectsZeroSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
RPCAddress = "127.0.0.1:8645"
DataDir = "./data"
PaymentToken = "CPT"
OnTimePoints = 0
LatePoints = 5
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestAdminIdentitiesRoundTrip(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := key.PubKey().Address()

	cfg := Default()
	cfg.AdminAllowList = []string{addr.String()}
	ids, err := cfg.AdminIdentities()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, addr.Bytes(), ids[0][:])

	cfg.AdminAllowList = []string{"not-an-address"}
	_, err = cfg.AdminIdentities()
	require.Error(t, err)
}
