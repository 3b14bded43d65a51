package health

import "context"

// Check reports whether one dependency is usable. A nil error means healthy.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	checks map[string]Check
}

// NewService constructs a new health service. Each named check shows up as a
// boolean in Status.
func NewService(checks map[string]Check) *Service {
	copied := make(map[string]Check, len(checks))
	for name, check := range checks {
		if check != nil {
			copied[name] = check
		}
	}
	return &Service{checks: copied}
}

// Status returns the health payload. The process is ok as long as it can
// serve the page; individual checks only flip their own flag.
func (s *Service) Status(ctx context.Context) map[string]bool {
	status := map[string]bool{"ok": true}
	if s == nil {
		return status
	}
	for name, check := range s.checks {
		status[name] = check(ctx) == nil
	}
	return status
}
