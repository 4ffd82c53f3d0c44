package port

import "context"

// HealthChecker is implemented by dependencies that can report readiness.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
