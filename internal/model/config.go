package model

// UserConfiguration is the decision object submitted for one deployment attempt.
// It is never mutated by the pipeline.
type UserConfiguration struct {
	Services  map[string]map[string]any `yaml:"services" json:"services"`
	Installed []string                  `yaml:"installed,omitempty" json:"installed,omitempty"`
}

// IsInstalled reports whether the service was explicitly installed
func (c *UserConfiguration) IsInstalled(serviceID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.Installed {
		if id == serviceID {
			return true
		}
	}
	return false
}
