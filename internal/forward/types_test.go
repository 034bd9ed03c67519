package forward

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongoctl/internal/config"
)

func TestSpecsFromConfig(t *testing.T) {
	cfg := config.Config{
		Namespace:   "mongo",
		KubeContext: "minikube",
		LogDir:      "/tmp/mongoctl",
		Forwards: []config.ForwardDefinition{
			{Label: "mongodb", Service: "mongodb", LocalPort: 27017, RemotePort: 27017},
			{Label: "express", Service: "mongo-express", LocalPort: 8081, RemotePort: 8081, Namespace: "web", KubeContext: "prod"},
		},
	}

	specs := SpecsFromConfig(cfg)
	require.Len(t, specs, 2)

	assert.Equal(t, "mongo", specs[0].Namespace, "namespace falls back to top level")
	assert.Equal(t, "minikube", specs[0].KubeContext)
	assert.Equal(t, filepath.Join("/tmp/mongoctl", "mongodb.log"), specs[0].LogPath)

	assert.Equal(t, "web", specs[1].Namespace, "per-forward namespace wins")
	assert.Equal(t, "prod", specs[1].KubeContext)
}
