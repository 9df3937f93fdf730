package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Exhaustive: BoolPtr(true),
		Reporters:  []string{"console"},
		NotifyOn:   "failure",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	return c.GetExhaustive() &&
		!c.GetBail() &&
		!c.GetVerbose() &&
		!c.GetNoColor() &&
		len(c.Variables) == 0 &&
		len(c.Reporters) == 1 && c.Reporters[0] == "console" &&
		c.OutputDir == "" &&
		c.NotifyOn == "failure" &&
		c.HistoryPath == ""
}
