package config

import (
	"fmt"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

// ValidPort reports whether v is a usable TCP port number.
func ValidPort(key, v string) error {
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return nil
}

// Load fills dst from the environment using its `envconfig`, `default` and
// `required` struct tags.
func Load(prefix string, dst any) error {
	if err := envconfig.Process(prefix, dst); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}
