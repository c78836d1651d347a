package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of a client.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	// Stop releases resources. It must be safe to call on a component
	// that was never started.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a one-line self report used in startup logs.
type Description struct {
	// Name falls back to the component's Name() when empty.
	Name string
	// Type is a short category such as "transport" or "telemetry".
	Type    string
	Details string
}

// Describable is optionally implemented by components that can report
// how they are configured.
type Describable interface {
	Describe() Description
}
