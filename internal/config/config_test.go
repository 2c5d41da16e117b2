package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aesprefs/internal/backend"
	"github.com/roach88/aesprefs/internal/prefs"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// clearEnv unsets every AESPREFS_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"NAMESPACE", "PASSWORD", "BACKEND", "PATH", "LOG_MODE", "IV_SOURCE", "KDF", "NORMALIZE_KEYS"} {
		key := EnvPrefix + name
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	file := writeFile(t, "aesprefs.yaml", `
namespace: com.example.app
password: pw
backend: bolt
path: /tmp/prefs.bolt
log_mode: all
iv_source: random
kdf: pbkdf2
normalize_keys: true
`)

	cfg, err := Load(LoadOptions{File: file})
	require.NoError(t, err)
	assert.Equal(t, Config{
		Namespace:     "com.example.app",
		Password:      "pw",
		Backend:       "bolt",
		Path:          "/tmp/prefs.bolt",
		LogMode:       "all",
		IVSource:      "random",
		KDF:           "pbkdf2",
		NormalizeKeys: true,
	}, *cfg)
}

func TestLoad_DefaultsFillGaps(t *testing.T) {
	clearEnv(t)
	file := writeFile(t, "aesprefs.yaml", "namespace: ns\npassword: pw\n")

	cfg, err := Load(LoadOptions{File: file})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, DefaultPath(), cfg.Path)
	assert.Equal(t, "default", cfg.LogMode)
	assert.Equal(t, "time", cfg.IVSource)
	assert.Equal(t, "sha256", cfg.KDF)
	assert.False(t, cfg.NormalizeKeys)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	file := writeFile(t, "aesprefs.yaml", "namespace: from-file\npassword: pw\n")
	t.Setenv("AESPREFS_NAMESPACE", "from-env")
	t.Setenv("AESPREFS_BACKEND", "memory")
	t.Setenv("AESPREFS_NORMALIZE_KEYS", "1")

	cfg, err := Load(LoadOptions{File: file})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Namespace)
	assert.Equal(t, "memory", cfg.Backend)
	assert.True(t, cfg.NormalizeKeys)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, "test.env", "AESPREFS_NAMESPACE=from-dotenv\nAESPREFS_PASSWORD=secret\nAESPREFS_BACKEND=memory\n")
	// godotenv does not override variables that are already set.
	t.Setenv("AESPREFS_PASSWORD", "from-process")
	// Registered with t.Setenv so the values godotenv sets are unset again.
	for _, key := range []string{"AESPREFS_NAMESPACE", "AESPREFS_BACKEND"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Namespace)
	assert.Equal(t, "from-process", cfg.Password)
	assert.Equal(t, "memory", cfg.Backend)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing password", "namespace: ns\n", "password is required"},
		{"missing namespace", "password: pw\n", "namespace is required"},
		{"bad backend", "namespace: ns\npassword: pw\nbackend: redis\n", "backend must be one of [sqlite bolt memory]"},
		{"bad log mode", "namespace: ns\npassword: pw\nlog_mode: loud\n", "log_mode must be one of"},
		{"bad kdf", "namespace: ns\npassword: pw\nkdf: md5\n", "kdf must be one of"},
		{"bad iv source", "namespace: ns\npassword: pw\niv_source: counter\n", "iv_source must be one of"},
		{"missing path", "namespace: ns\npassword: pw\nbackend: bolt\npath: \"\"\n", "path is required"},
		{"unknown field", "namespace: ns\npassword: pw\ncolour: blue\n", "field colour not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			file := writeFile(t, "aesprefs.yaml", tt.yaml)
			_, err := Load(LoadOptions{File: file})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	clearEnv(t)

	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)

	_, err = Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	assert.Error(t, err)
}

func TestLoad_BadNormalizeKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("AESPREFS_NAMESPACE", "ns")
	t.Setenv("AESPREFS_PASSWORD", "pw")
	t.Setenv("AESPREFS_NORMALIZE_KEYS", "sometimes")

	_, err := Load(LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NORMALIZE_KEYS")
}

func TestOpenRegistry(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []Config{
		{Backend: "memory"},
		{Backend: "sqlite", Path: filepath.Join(dir, "prefs.db")},
		{Backend: "bolt", Path: filepath.Join(dir, "prefs.bolt")},
	} {
		t.Run(cfg.Backend, func(t *testing.T) {
			reg, err := cfg.OpenRegistry()
			require.NoError(t, err)
			defer reg.Close()

			n, err := reg.Node(context.Background(), "ns")
			require.NoError(t, err)
			require.NoError(t, n.Put(context.Background(), "k", "v"))
		})
	}

	_, err := (&Config{Backend: "redis"}).OpenRegistry()
	assert.Error(t, err)
}

func TestStoreOptions(t *testing.T) {
	ctx := context.Background()
	cfg := Config{LogMode: "get", IVSource: "random", KDF: "sha256", NormalizeKeys: true}

	opts, err := cfg.StoreOptions(nil)
	require.NoError(t, err)

	s := prefs.New(backend.NewMemory(), opts...)
	assert.Equal(t, prefs.LogGet, s.LogMode())

	require.NoError(t, s.Init(ctx, "ns", "pw"))
	require.NoError(t, s.PutString(ctx, "caf\u00e9", "latte"))
	assert.Equal(t, "latte", s.GetString(ctx, "cafe\u0301", "?"))

	_, err = (&Config{LogMode: "loud"}).StoreOptions(nil)
	assert.Error(t, err)
	_, err = (&Config{KDF: "md5"}).StoreOptions(nil)
	assert.Error(t, err)
	_, err = (&Config{IVSource: "counter"}).StoreOptions(nil)
	assert.Error(t, err)
}
