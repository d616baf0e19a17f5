package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInclude indicates no include patterns are configured
	ErrEmptyInclude = errors.New("empty include patterns")

	// ErrInvalidWorkers indicates an invalid worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidLimit indicates an invalid search result limit
	ErrInvalidLimit = errors.New("invalid search limit")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if len(cfg.Paths.Include) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one include pattern required", ErrEmptyInclude))
	}
	for _, pattern := range cfg.Paths.Include {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, fmt.Errorf("%w: blank include pattern", ErrEmptyInclude))
		}
	}

	if cfg.Migration.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Migration.Workers))
	}

	if cfg.Search.Limit <= 0 || cfg.Search.Limit > 100 {
		errs = append(errs, fmt.Errorf("%w: limit must be in 1..100, got %d", ErrInvalidLimit, cfg.Search.Limit))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
