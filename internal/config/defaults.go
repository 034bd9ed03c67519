package config

import (
	"os"
	"path/filepath"
)

// Reference deployment defaults. These match the mongo/mongo-express
// manifests the tool was written to debug.
const (
	DefaultNamespace      = "mongo"
	DefaultSecretName     = "mongodb-credentials"
	DefaultMongoService   = "mongodb"
	DefaultMongoPort      = 27017
	DefaultExpressService = "mongo-express"
	DefaultExpressPort    = 8081
	DefaultMongoLabel     = "mongodb"
	DefaultExpressLabel   = "mongo-express"
)

// DefaultConfig returns the built-in configuration: the two forwards every
// run of the reference deployment needs, on their conventional ports.
func DefaultConfig() Config {
	return Config{
		Namespace:  DefaultNamespace,
		SecretName: DefaultSecretName,
		LogDir:     filepath.Join(os.TempDir(), "mongoctl"),
		Forwards: []ForwardDefinition{
			{
				Label:      DefaultMongoLabel,
				Service:    DefaultMongoService,
				LocalPort:  DefaultMongoPort,
				RemotePort: DefaultMongoPort,
			},
			{
				Label:      DefaultExpressLabel,
				Service:    DefaultExpressService,
				LocalPort:  DefaultExpressPort,
				RemotePort: DefaultExpressPort,
			},
		},
	}
}
