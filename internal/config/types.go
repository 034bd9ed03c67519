package config

// ForwardDefinition describes one local-port to remote-service port-forward.
// Namespace and KubeContext fall back to the top-level settings when empty.
type ForwardDefinition struct {
	Label       string `yaml:"label"`
	Service     string `yaml:"service"`
	LocalPort   int    `yaml:"localPort"`
	RemotePort  int    `yaml:"remotePort"`
	Namespace   string `yaml:"namespace,omitempty"`
	KubeContext string `yaml:"kubeContext,omitempty"`
}

// Config is the top-level configuration for mongoctl.
type Config struct {
	// Namespace the MongoDB deployment lives in.
	Namespace string `yaml:"namespace,omitempty"`
	// KubeContext overrides the kubeconfig current context when set.
	KubeContext string `yaml:"kubeContext,omitempty"`
	// SecretName is the Secret holding the MongoDB root credentials.
	SecretName string `yaml:"secretName,omitempty"`
	// LogDir is where per-forward log files are written (one file per
	// forward, overwritten each run).
	LogDir string `yaml:"logDir,omitempty"`
	// Forwards is the list of port-forwards the supervisor manages.
	Forwards []ForwardDefinition `yaml:"forwards,omitempty"`
}
