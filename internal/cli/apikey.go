package cli

import (
	"fmt"
	"os"
)

var apiKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// resolveAPIKey prefers the flag value and falls back to the provider's
// environment variable.
func resolveAPIKey(provider, flagValue string, getenv func(string) string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	envVar, ok := apiKeyEnv[provider]
	if !ok {
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
	if key := getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf(
		"API key is required: use --api-key flag or set %s environment variable",
		envVar,
	)
}

func apiKeyFor(provider, flagValue string) (string, error) {
	return resolveAPIKey(provider, flagValue, os.Getenv)
}
