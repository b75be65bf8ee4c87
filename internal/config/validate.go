package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Validate checks the structural validity of a Config: the workspace must
// exist if set, numeric bounds must be non-negative, and policy extensions
// must be non-empty strings.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Workspace != "" {
		info, err := os.Stat(cfg.Workspace)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("config: workspace %s: %w", cfg.Workspace, err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("config: workspace %s is not a directory", cfg.Workspace))
		}
	}

	if cfg.Cache.TTLSeconds < 0 {
		errs = append(errs, errors.New("config: cache.ttl_seconds must not be negative"))
	}

	for name, v := range map[string]int{
		"timeouts.shell_seconds":  cfg.Timeouts.ShellSeconds,
		"timeouts.http_seconds":   cfg.Timeouts.HTTPSeconds,
		"timeouts.git_seconds":    cfg.Timeouts.GitSeconds,
		"timeouts.docker_seconds": cfg.Timeouts.DockerSeconds,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("config: %s must not be negative", name))
		}
	}

	for i, cmd := range cfg.Security.AllowExtra {
		if strings.TrimSpace(cmd) == "" {
			errs = append(errs, fmt.Errorf("config: security.allow_extra[%d]: empty command", i))
		}
	}
	for i, pat := range cfg.Security.ForbidExtra {
		if strings.TrimSpace(pat) == "" {
			errs = append(errs, fmt.Errorf("config: security.forbid_extra[%d]: empty pattern", i))
		}
	}

	if cfg.Admin.Bind != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Admin.Bind); err != nil {
			errs = append(errs, fmt.Errorf("config: admin.bind %q: %w", cfg.Admin.Bind, err))
		}
	}

	return errors.Join(errs...)
}
