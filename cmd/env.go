package cmd

import (
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"github.com/reviewbridge/internal/config"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Platforms whose credentials are incomplete
	Present  map[string]string // Variables that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig reports which credential variables are set. Every
// platform is optional at startup; a platform without credentials only fails
// when its tool is invoked.
func CheckRequiredConfig(cfg *config.Config, lookup config.LookupFunc) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	set := map[string]bool{}
	for _, v := range config.CredentialVars(cfg, lookup) {
		if v.Set {
			result.Present[v.Name] = maskSecret(v.Value)
			set[v.Name] = true
		}
	}

	p := cfg.Providers
	if !set[p.GitHub.TokenEnv] {
		result.Missing = append(result.Missing, p.GitHub.TokenEnv)
	}
	if !set[p.GitLab.TokenEnv] {
		result.Missing = append(result.Missing, p.GitLab.TokenEnv)
	}
	if !set[p.Jira.URLEnv] {
		result.Missing = append(result.Missing, p.Jira.URLEnv)
	}
	if !set[p.Jira.TokenEnv] {
		result.Missing = append(result.Missing, p.Jira.TokenEnv)
	}

	switch {
	case set[p.Gerrit.UsernameEnv] && !set[p.Gerrit.PasswordEnv]:
		result.Missing = append(result.Missing, p.Gerrit.PasswordEnv)
	case !set[p.Gerrit.UsernameEnv]:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s not set, Gerrit is read anonymously", p.Gerrit.UsernameEnv))
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(w io.Writer, result *ConfigCheckResult) {
	fmt.Fprintln(w, "=== Configuration Check ===")
	fmt.Fprintln(w, "")

	if len(result.Missing) > 0 {
		fmt.Fprintln(w, "❌ Missing variables (their tools will report a configuration error):")
		for _, v := range result.Missing {
			fmt.Fprintf(w, "   - %s\n", v)
		}
		fmt.Fprintln(w, "")
	}

	if len(result.Present) > 0 {
		fmt.Fprintln(w, "✓ Configured variables:")
		for k, v := range result.Present {
			fmt.Fprintf(w, "   - %s = %s\n", k, v)
		}
		fmt.Fprintln(w, "")
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠ Warning: %s\n", warning)
	}

	if len(result.Missing) == 0 {
		fmt.Fprintln(w, "✓ All credentials are present")
	}

	fmt.Fprintln(w, "============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	return godotenv.Overload(filename)
}
