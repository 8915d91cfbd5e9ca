package config

import "strings"

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)

// NormalizeEnvironment folds the service environment into production or development.
func NormalizeEnvironment(environment string) string {
	switch strings.TrimSpace(strings.ToLower(environment)) {
	case "production", "prod", "live":
		return EnvironmentProduction
	default:
		return EnvironmentDevelopment
	}
}

func IsProduction(cfg ConfigurationService) bool {
	if cfg == nil {
		return false
	}
	return cfg.IsProduction()
}
