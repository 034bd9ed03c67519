package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// For mocking in tests.
var (
	osUserHomeDir = os.UserHomeDir
	osGetwd       = os.Getwd
	lookupEnv     = os.LookupEnv
)

const (
	userConfigDir    = ".config/mongoctl"
	projectConfigDir = ".mongoctl"
	configFileName   = "config.yaml"
)

// Environment variables recognized by Load. Environment wins over YAML so a
// one-off override never requires editing a file.
const (
	EnvNamespace         = "MONGOCTL_NAMESPACE"
	EnvKubeContext       = "MONGOCTL_KUBE_CONTEXT"
	EnvSecretName        = "MONGOCTL_SECRET_NAME"
	EnvLogDir            = "MONGOCTL_LOG_DIR"
	EnvMongoService      = "MONGOCTL_MONGO_SERVICE"
	EnvMongoLocalPort    = "MONGOCTL_MONGO_LOCAL_PORT"
	EnvMongoRemotePort   = "MONGOCTL_MONGO_REMOTE_PORT"
	EnvExpressService    = "MONGOCTL_EXPRESS_SERVICE"
	EnvExpressLocalPort  = "MONGOCTL_EXPRESS_LOCAL_PORT"
	EnvExpressRemotePort = "MONGOCTL_EXPRESS_REMOTE_PORT"
)

// Load builds the effective configuration by layering, in order: built-in
// defaults, the user config file, the project config file, and finally
// environment variables.
func Load() (Config, error) {
	cfg := DefaultConfig()

	userPath, err := userConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine user config path: %v\n", err)
	} else if _, statErr := os.Stat(userPath); statErr == nil {
		overlay, loadErr := loadFromFile(userPath)
		if loadErr != nil {
			return Config{}, fmt.Errorf("loading user config from %s: %w", userPath, loadErr)
		}
		cfg = merge(cfg, overlay)
	}

	projectPath, err := projectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine project config path: %v\n", err)
	} else if _, statErr := os.Stat(projectPath); statErr == nil {
		overlay, loadErr := loadFromFile(projectPath)
		if loadErr != nil {
			return Config{}, fmt.Errorf("loading project config from %s: %w", projectPath, loadErr)
		}
		cfg = merge(cfg, overlay)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func userConfigPath() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigDir, configFileName), nil
}

func projectConfigPath() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func loadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// merge overlays the non-zero fields of overlay onto base. Forwards are
// merged by label: an overlay forward replaces the base forward with the same
// label, otherwise it is appended.
func merge(base, overlay Config) Config {
	merged := base
	if overlay.Namespace != "" {
		merged.Namespace = overlay.Namespace
	}
	if overlay.KubeContext != "" {
		merged.KubeContext = overlay.KubeContext
	}
	if overlay.SecretName != "" {
		merged.SecretName = overlay.SecretName
	}
	if overlay.LogDir != "" {
		merged.LogDir = overlay.LogDir
	}

	if len(overlay.Forwards) > 0 {
		byLabel := make(map[string]int, len(merged.Forwards))
		for i, fwd := range merged.Forwards {
			byLabel[fwd.Label] = i
		}
		for _, fwd := range overlay.Forwards {
			if i, ok := byLabel[fwd.Label]; ok {
				merged.Forwards[i] = fwd
			} else {
				merged.Forwards = append(merged.Forwards, fwd)
			}
		}
	}
	return merged
}

// applyEnv applies the MONGOCTL_* environment variables on top of cfg. The
// per-service variables adjust the two built-in forwards by label.
func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv(EnvNamespace); ok {
		cfg.Namespace = v
	}
	if v, ok := lookupEnv(EnvKubeContext); ok {
		cfg.KubeContext = v
	}
	if v, ok := lookupEnv(EnvSecretName); ok {
		cfg.SecretName = v
	}
	if v, ok := lookupEnv(EnvLogDir); ok {
		cfg.LogDir = v
	}

	type fwdEnv struct {
		label      string
		service    string
		localPort  string
		remotePort string
	}
	for _, fe := range []fwdEnv{
		{DefaultMongoLabel, EnvMongoService, EnvMongoLocalPort, EnvMongoRemotePort},
		{DefaultExpressLabel, EnvExpressService, EnvExpressLocalPort, EnvExpressRemotePort},
	} {
		idx := -1
		for i, fwd := range cfg.Forwards {
			if fwd.Label == fe.label {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}
		if v, ok := lookupEnv(fe.service); ok {
			cfg.Forwards[idx].Service = v
		}
		if v, ok := lookupEnv(fe.localPort); ok {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", fe.localPort, v, err)
			}
			cfg.Forwards[idx].LocalPort = port
		}
		if v, ok := lookupEnv(fe.remotePort); ok {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", fe.remotePort, v, err)
			}
			cfg.Forwards[idx].RemotePort = port
		}
	}
	return nil
}

// Validate rejects configurations the supervisor cannot run: missing
// services, non-positive ports, and duplicate labels or local ports.
func Validate(cfg Config) error {
	if cfg.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	seenLabels := make(map[string]bool, len(cfg.Forwards))
	seenPorts := make(map[int]string, len(cfg.Forwards))
	for _, fwd := range cfg.Forwards {
		if fwd.Label == "" {
			return fmt.Errorf("forward with service %q has no label", fwd.Service)
		}
		if seenLabels[fwd.Label] {
			return fmt.Errorf("duplicate forward label %q", fwd.Label)
		}
		seenLabels[fwd.Label] = true
		if fwd.Service == "" {
			return fmt.Errorf("forward %q has no service", fwd.Label)
		}
		if fwd.LocalPort <= 0 || fwd.LocalPort > 65535 {
			return fmt.Errorf("forward %q has invalid local port %d", fwd.Label, fwd.LocalPort)
		}
		if fwd.RemotePort <= 0 || fwd.RemotePort > 65535 {
			return fmt.Errorf("forward %q has invalid remote port %d", fwd.Label, fwd.RemotePort)
		}
		if holder, taken := seenPorts[fwd.LocalPort]; taken {
			return fmt.Errorf("forwards %q and %q both claim local port %d", holder, fwd.Label, fwd.LocalPort)
		}
		seenPorts[fwd.LocalPort] = fwd.Label
	}
	return nil
}
