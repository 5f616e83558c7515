package config

import (
	"fmt"
	"strings"
)

// ServiceMode identifies one runnable service within the binary.
type ServiceMode string

const (
	// ServiceModeWorker runs the backtest dispatch worker.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeMigrate applies database migrations and exits.
	ServiceModeMigrate ServiceMode = "migrate"
)

// ParseServices parses a comma-separated list of service modes.
func ParseServices(raw string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		switch mode {
		case ServiceModeWorker, ServiceModeMigrate:
			services[mode] = true
		default:
			return nil, fmt.Errorf("unknown service mode %q", name)
		}
	}
	return services, nil
}
