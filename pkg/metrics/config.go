package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config selects where pool and scheduler metrics are registered.
type Config struct {
	// Enabled turns collection on. A disabled component still owns its
	// registry so it can be enabled later.
	Enabled bool

	// Registry receives the collectors. Nil means prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace prefixes metric names. Empty means DefaultNamespace.
	Namespace string

	// Labels are constant labels attached to every collector.
	Labels prometheus.Labels
}

// DefaultConfig enables collection on the default Prometheus registerer.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

func (c Config) registerer() prometheus.Registerer {
	if c.Registry == nil {
		return prometheus.DefaultRegisterer
	}
	return c.Registry
}

func (c Config) namespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}

// Instrumentable is implemented by components whose metrics can be
// switched on and off at runtime.
type Instrumentable interface {
	EnableMetrics(config Config) error
	DisableMetrics()
}
