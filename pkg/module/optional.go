package module

import "context"

// HealthStatus reports a module's health for the /health endpoint.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// HealthChecker is implemented by modules that report their health status.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// Validator is implemented by modules that validate their config post-init.
type Validator interface {
	ValidateConfig() error
}
