package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nWALLET_A=plain\nexport WALLET_B=\"quoted=value\"\nWALLET_C='single'\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("WALLET_A", "old")
	t.Setenv("WALLET_B", "")
	t.Setenv("WALLET_C", "")

	require.NoError(t, Load(path))
	assert.Equal(t, "plain", os.Getenv("WALLET_A"))
	assert.Equal(t, "quoted=value", os.Getenv("WALLET_B"))
	assert.Equal(t, "single", os.Getenv("WALLET_C"))
}

func TestLoadMissingFile(t *testing.T) {
	assert.NoError(t, Load(filepath.Join(t.TempDir(), "nope.env")))
}
