package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret may come from. File wins over Env, Env wins over Value.
type Source struct {
	// Name is used in error messages.
	Name string
	// Value is an inline secret, usually a flag.
	Value string
	// Env names an environment variable holding the secret.
	Env string
	// File points to a file holding the secret.
	File string
}

// Configured reports whether any location is set for the secret.
func (s Source) Configured() bool {
	return strings.TrimSpace(s.File) != "" ||
		(strings.TrimSpace(s.Env) != "" && strings.TrimSpace(os.Getenv(s.Env)) != "") ||
		strings.TrimSpace(s.Value) != ""
}

// Load resolves the secret and trims it. An error is returned when the chosen location
// holds nothing usable or no location is configured.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if src.Env != "" {
			return "", fmt.Errorf("%s is not configured (set %s)", name, src.Env)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
