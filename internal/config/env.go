package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names recognized as overrides. They sit between the
// site file and CLI flags in precedence: file < env < flags.
const (
	EnvInput      = "MDSITE_INPUT"
	EnvOutput     = "MDSITE_OUTPUT"
	EnvStylesheet = "MDSITE_STYLESHEET"
	EnvHeader     = "MDSITE_HEADER"
	EnvFooter     = "MDSITE_FOOTER"
	EnvCache      = "MDSITE_CACHE"
)

// ApplyEnv loads a .env file when present (best effort) and applies MDSITE_*
// overrides onto the config.
func (c *SiteConfig) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(EnvInput); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvStylesheet); v != "" {
		c.Stylesheet = v
	}
	if v := os.Getenv(EnvHeader); v != "" {
		c.HeaderPath = v
	}
	if v := os.Getenv(EnvFooter); v != "" {
		c.FooterPath = v
	}
	if v := os.Getenv(EnvCache); v != "" {
		c.CachePath = v
	}
}
