package observability

import "github.com/kbukum/apikit/component"

// ServiceHealth is the aggregate health of a client and its components.
type ServiceHealth struct {
	Service    string                 `json:"service"`
	Status     component.HealthStatus `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Components []component.Health     `json:"components,omitempty"`
}

// Summarize folds component reports into one status: unhealthy if any
// component is, otherwise degraded if any component is, otherwise
// healthy.
func Summarize(service, version string, components []component.Health) ServiceHealth {
	sh := ServiceHealth{
		Service:    service,
		Status:     component.StatusHealthy,
		Version:    version,
		Components: components,
	}
	for _, h := range components {
		switch h.Status {
		case component.StatusUnhealthy:
			sh.Status = component.StatusUnhealthy
		case component.StatusDegraded:
			if sh.Status != component.StatusUnhealthy {
				sh.Status = component.StatusDegraded
			}
		}
	}
	return sh
}
