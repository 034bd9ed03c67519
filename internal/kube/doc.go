// Package kube provides read-only Kubernetes API access for mongoctl's
// diagnostic commands.
//
// Port-forwarding deliberately does not live here: the supervisor delegates
// the proxy itself to the external kubectl client (see internal/kubectl and
// internal/forward). This package covers the things worth doing in-process
// with client-go instead of shelling out and parsing text:
//
//   - reading the MongoDB credentials Secret (Data arrives base64-decoded)
//   - deployment ready-replica counts and service ports for `status`
//   - ingress resources and controller pods for `ingress`
//
// All functions take the kubeconfig context to use; an empty context means
// whatever the kubeconfig currently points at.
package kube
