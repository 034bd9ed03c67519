package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withEnv stubs the package-level lookupEnv with a fixed map for the duration
// of the test.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = original })
}

// withIsolatedPaths points the loader's home and working directories at empty
// temp dirs so no real config files leak into the test.
func withIsolatedPaths(t *testing.T) (home, wd string) {
	t.Helper()
	home = t.TempDir()
	wd = t.TempDir()
	originalHome := osUserHomeDir
	originalGetwd := osGetwd
	osUserHomeDir = func() (string, error) { return home, nil }
	osGetwd = func() (string, error) { return wd, nil }
	t.Cleanup(func() {
		osUserHomeDir = originalHome
		osGetwd = originalGetwd
	})
	return home, wd
}

func TestLoadDefaults(t *testing.T) {
	withIsolatedPaths(t)
	withEnv(t, nil)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.Namespace)
	assert.Equal(t, "mongodb-credentials", cfg.SecretName)
	require.Len(t, cfg.Forwards, 2)
	assert.Equal(t, "mongodb", cfg.Forwards[0].Label)
	assert.Equal(t, 27017, cfg.Forwards[0].LocalPort)
	assert.Equal(t, "mongo-express", cfg.Forwards[1].Label)
	assert.Equal(t, 8081, cfg.Forwards[1].RemotePort)
}

func TestLoadEnvOverrides(t *testing.T) {
	withIsolatedPaths(t)
	withEnv(t, map[string]string{
		EnvNamespace:        "db-debug",
		EnvMongoService:     "mongodb-headless",
		EnvMongoLocalPort:   "37017",
		EnvExpressLocalPort: "18081",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db-debug", cfg.Namespace)
	assert.Equal(t, "mongodb-headless", cfg.Forwards[0].Service)
	assert.Equal(t, 37017, cfg.Forwards[0].LocalPort)
	assert.Equal(t, 27017, cfg.Forwards[0].RemotePort, "remote port stays at default")
	assert.Equal(t, 18081, cfg.Forwards[1].LocalPort)
}

func TestLoadInvalidEnvPort(t *testing.T) {
	withIsolatedPaths(t)
	withEnv(t, map[string]string{EnvMongoLocalPort: "not-a-port"})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvMongoLocalPort)
}

func TestLoadYAMLOverlayAndEnvPrecedence(t *testing.T) {
	home, _ := withIsolatedPaths(t)
	withEnv(t, map[string]string{EnvNamespace: "from-env"})

	userDir := filepath.Join(home, userConfigDir)
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	yamlCfg := `
namespace: from-yaml
forwards:
  - label: mongodb
    service: mongodb-custom
    localPort: 47017
    remotePort: 27017
  - label: metrics
    service: mongodb-exporter
    localPort: 9216
    remotePort: 9216
`
	require.NoError(t, os.WriteFile(filepath.Join(userDir, configFileName), []byte(yamlCfg), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Namespace, "env wins over YAML")
	require.Len(t, cfg.Forwards, 3, "overlay replaces by label and appends new forwards")
	assert.Equal(t, "mongodb-custom", cfg.Forwards[0].Service)
	assert.Equal(t, 47017, cfg.Forwards[0].LocalPort)
	assert.Equal(t, "metrics", cfg.Forwards[2].Label)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Namespace: "mongo",
			Forwards: []ForwardDefinition{
				{Label: "a", Service: "svc-a", LocalPort: 9090, RemotePort: 9090},
				{Label: "b", Service: "svc-b", LocalPort: 18080, RemotePort: 80},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Validate(base()))
	})

	t.Run("duplicate local port", func(t *testing.T) {
		cfg := base()
		cfg.Forwards[1].LocalPort = 9090
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "local port 9090")
	})

	t.Run("duplicate label", func(t *testing.T) {
		cfg := base()
		cfg.Forwards[1].Label = "a"
		assert.Error(t, Validate(cfg))
	})

	t.Run("empty service", func(t *testing.T) {
		cfg := base()
		cfg.Forwards[0].Service = ""
		assert.Error(t, Validate(cfg))
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := base()
		cfg.Forwards[0].RemotePort = 0
		assert.Error(t, Validate(cfg))
	})
}
