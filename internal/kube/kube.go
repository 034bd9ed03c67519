package kube

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth" // auth providers (minikube, oidc, ...)
	"k8s.io/client-go/tools/clientcmd"
)

const requestTimeout = 15 * time.Second

// newClientset builds a clientset for the given kubeconfig context (empty
// means the current context). Swapped for a fake in tests.
var newClientset = func(kubeContext string) (kubernetes.Interface, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{}
	if kubeContext != "" {
		overrides.CurrentContext = kubeContext
	}
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("building client config for context %q: %w", kubeContext, err)
	}
	restConfig.Timeout = requestTimeout
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating clientset: %w", err)
	}
	return clientset, nil
}

// CurrentContext returns the active kubeconfig context name.
var CurrentContext = func() (string, error) {
	config, err := clientcmd.NewDefaultPathOptions().GetStartingConfig()
	if err != nil {
		return "", fmt.Errorf("loading kubeconfig: %w", err)
	}
	if config.CurrentContext == "" {
		return "", fmt.Errorf("current kubeconfig context is not set")
	}
	return config.CurrentContext, nil
}

// GetSecret fetches a Secret and returns its decoded field map. The API
// delivers Data already base64-decoded; no further decoding is needed.
func GetSecret(ctx context.Context, kubeContext, namespace, name string) (map[string][]byte, error) {
	clientset, err := newClientset(kubeContext)
	if err != nil {
		return nil, err
	}
	secret, err := clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting secret %s/%s: %w", namespace, name, err)
	}
	return secret.Data, nil
}

// DeploymentStatus reports ready vs desired replicas for a deployment.
func DeploymentStatus(ctx context.Context, kubeContext, namespace, name string) (ready, desired int32, err error) {
	clientset, err := newClientset(kubeContext)
	if err != nil {
		return 0, 0, err
	}
	dep, err := clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("getting deployment %s/%s: %w", namespace, name, err)
	}
	desired = 1
	if dep.Spec.Replicas != nil {
		desired = *dep.Spec.Replicas
	}
	return dep.Status.ReadyReplicas, desired, nil
}

// ServicePorts returns the declared ports of a service, or an error when the
// service does not exist.
func ServicePorts(ctx context.Context, kubeContext, namespace, name string) ([]int32, error) {
	clientset, err := newClientset(kubeContext)
	if err != nil {
		return nil, err
	}
	svc, err := clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting service %s/%s: %w", namespace, name, err)
	}
	ports := make([]int32, 0, len(svc.Spec.Ports))
	for _, p := range svc.Spec.Ports {
		ports = append(ports, p.Port)
	}
	return ports, nil
}

// IngressInfo is a flattened view of one Ingress resource.
type IngressInfo struct {
	Name      string
	Class     string
	Hosts     []string
	Addresses []string
}

// ListIngresses returns the ingresses in a namespace with their hosts and
// load-balancer addresses.
func ListIngresses(ctx context.Context, kubeContext, namespace string) ([]IngressInfo, error) {
	clientset, err := newClientset(kubeContext)
	if err != nil {
		return nil, err
	}
	list, err := clientset.NetworkingV1().Ingresses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing ingresses in %s: %w", namespace, err)
	}

	infos := make([]IngressInfo, 0, len(list.Items))
	for _, ing := range list.Items {
		info := IngressInfo{Name: ing.Name}
		if ing.Spec.IngressClassName != nil {
			info.Class = *ing.Spec.IngressClassName
		}
		for _, rule := range ing.Spec.Rules {
			if rule.Host != "" {
				info.Hosts = append(info.Hosts, rule.Host)
			}
		}
		for _, lb := range ing.Status.LoadBalancer.Ingress {
			switch {
			case lb.IP != "":
				info.Addresses = append(info.Addresses, lb.IP)
			case lb.Hostname != "":
				info.Addresses = append(info.Addresses, lb.Hostname)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ingressControllerNamespaces are probed, in order, for a running ingress
// controller. Minikube's addon deploys into ingress-nginx.
var ingressControllerNamespaces = []string{"ingress-nginx", "kube-system"}

// IngressControllerRunning looks for a running ingress-nginx controller pod
// and returns where it was found.
func IngressControllerRunning(ctx context.Context, kubeContext string) (bool, string, error) {
	clientset, err := newClientset(kubeContext)
	if err != nil {
		return false, "", err
	}
	for _, ns := range ingressControllerNamespaces {
		pods, err := clientset.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{
			LabelSelector: "app.kubernetes.io/component=controller",
		})
		if err != nil {
			continue
		}
		for _, pod := range pods.Items {
			if pod.Status.Phase == corev1.PodRunning {
				return true, ns, nil
			}
		}
	}
	return false, "", nil
}
