package ports

import "go.trai.ch/gild/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path, resolved against cwd.
	// A missing file yields the default configuration rooted at cwd.
	Load(cwd, path string) (domain.Config, error)
}
