package diagnose

import (
	"context"
	"fmt"
	"net"
	"strings"

	"mongoctl/internal/kube"
	"mongoctl/internal/kubectl"
)

// State classifies a check outcome.
type State string

const (
	StateOK   State = "OK"
	StateWarn State = "WARN"
	StateFail State = "FAIL"
)

// Check is one labeled diagnostic outcome.
type Check struct {
	Name   string
	State  State
	Detail string
}

// Result is an ordered list of checks.
type Result []Check

// Failed reports whether any check in the result failed outright.
func (r Result) Failed() bool {
	for _, c := range r {
		if c.State == StateFail {
			return true
		}
	}
	return false
}

// Seams for tests, in the usual mockable-function-var style.
var (
	listIngresses     = kube.ListIngresses
	controllerRunning = kube.IngressControllerRunning
	deploymentStatus  = kube.DeploymentStatus
	servicePorts      = kube.ServicePorts
	currentContext    = kube.CurrentContext
	kubectlInstalled  = kubectl.EnsureInstalled
	lookupHost        = net.LookupHost
)

// Ingress runs the ingress troubleshooting checks for a namespace. When
// hostOverride is non-empty it replaces the host under test, useful when the
// ingress rule has no host yet.
func Ingress(ctx context.Context, kubeContext, namespace, hostOverride string) (Result, error) {
	var result Result

	running, controllerNS, err := controllerRunning(ctx, kubeContext)
	if err != nil {
		return nil, err
	}
	if running {
		result = append(result, Check{
			Name:   "ingress controller",
			State:  StateOK,
			Detail: fmt.Sprintf("running in namespace %s", controllerNS),
		})
	} else {
		result = append(result, Check{
			Name:   "ingress controller",
			State:  StateFail,
			Detail: "no running controller pod found; on minikube run `minikube addons enable ingress`",
		})
	}

	ingresses, err := listIngresses(ctx, kubeContext, namespace)
	if err != nil {
		return nil, err
	}
	if len(ingresses) == 0 {
		result = append(result, Check{
			Name:   "ingress resources",
			State:  StateFail,
			Detail: fmt.Sprintf("no ingress resources in namespace %s", namespace),
		})
		return result, nil
	}
	result = append(result, Check{
		Name:   "ingress resources",
		State:  StateOK,
		Detail: fmt.Sprintf("%d found in namespace %s", len(ingresses), namespace),
	})

	for _, ing := range ingresses {
		result = append(result, hostChecks(ing, hostOverride)...)
	}
	return result, nil
}

// hostChecks validates one ingress's host and address, including the classic
// minikube pitfall: the hostname never added to /etc/hosts.
func hostChecks(ing kube.IngressInfo, hostOverride string) Result {
	var result Result
	prefix := "ingress " + ing.Name

	if len(ing.Addresses) == 0 {
		result = append(result, Check{
			Name:   prefix + " address",
			State:  StateWarn,
			Detail: "no load-balancer address assigned yet",
		})
	} else {
		result = append(result, Check{
			Name:   prefix + " address",
			State:  StateOK,
			Detail: strings.Join(ing.Addresses, ", "),
		})
	}

	host := hostOverride
	if host == "" {
		if len(ing.Hosts) == 0 {
			result = append(result, Check{
				Name:   prefix + " host",
				State:  StateWarn,
				Detail: "no host rule on the ingress",
			})
			return result
		}
		host = ing.Hosts[0]
	}

	resolved, err := lookupHost(host)
	if err != nil {
		detail := fmt.Sprintf("%s does not resolve", host)
		if len(ing.Addresses) > 0 {
			detail += fmt.Sprintf("; add `%s %s` to /etc/hosts", ing.Addresses[0], host)
		}
		result = append(result, Check{Name: prefix + " DNS", State: StateFail, Detail: detail})
		return result
	}

	if len(ing.Addresses) > 0 && !anyOverlap(resolved, ing.Addresses) {
		result = append(result, Check{
			Name:  prefix + " DNS",
			State: StateWarn,
			Detail: fmt.Sprintf("%s resolves to %s but the ingress address is %s",
				host, strings.Join(resolved, ", "), strings.Join(ing.Addresses, ", ")),
		})
		return result
	}

	result = append(result, Check{
		Name:   prefix + " DNS",
		State:  StateOK,
		Detail: fmt.Sprintf("%s -> %s", host, strings.Join(resolved, ", ")),
	})
	return result
}

func anyOverlap(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if set[s] {
			return true
		}
	}
	return false
}

// Status runs the one-shot deployment health summary: CLI client present,
// active context, and ready-replica counts plus service presence for each
// named workload (the reference manifests name the deployment and its
// service identically).
func Status(ctx context.Context, kubeContext, namespace string, workloads []string) (Result, error) {
	var result Result

	if err := kubectlInstalled(); err != nil {
		result = append(result, Check{Name: "kubectl", State: StateFail, Detail: err.Error()})
	} else {
		result = append(result, Check{Name: "kubectl", State: StateOK, Detail: "found on PATH"})
	}

	contextName := kubeContext
	if contextName == "" {
		name, err := currentContext()
		if err != nil {
			result = append(result, Check{Name: "kube context", State: StateFail, Detail: err.Error()})
			return result, nil
		}
		contextName = name
	}
	result = append(result, Check{Name: "kube context", State: StateOK, Detail: contextName})

	for _, name := range workloads {
		ready, desired, err := deploymentStatus(ctx, kubeContext, namespace, name)
		switch {
		case err != nil:
			result = append(result, Check{Name: "deployment " + name, State: StateFail, Detail: err.Error()})
		case ready < desired:
			result = append(result, Check{
				Name:   "deployment " + name,
				State:  StateFail,
				Detail: fmt.Sprintf("%d/%d replicas ready", ready, desired),
			})
		default:
			result = append(result, Check{
				Name:   "deployment " + name,
				State:  StateOK,
				Detail: fmt.Sprintf("%d/%d replicas ready", ready, desired),
			})
		}

		ports, err := servicePorts(ctx, kubeContext, namespace, name)
		if err != nil {
			result = append(result, Check{Name: "service " + name, State: StateFail, Detail: err.Error()})
			continue
		}
		portStrs := make([]string, len(ports))
		for i, p := range ports {
			portStrs[i] = fmt.Sprint(p)
		}
		result = append(result, Check{
			Name:   "service " + name,
			State:  StateOK,
			Detail: "ports " + strings.Join(portStrs, ", "),
		})
	}
	return result, nil
}
