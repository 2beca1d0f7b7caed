package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvInfo captures the execution environment once, at build start. Policy
// tables are pure functions of this value; nothing else in the pipeline
// reads the process environment.
type EnvInfo struct {
	// CI is true when running under an automated, non-interactive context.
	CI bool
	// Test is true when running under a test harness.
	Test bool
}

// DetectEnv loads .env/.env.local (without overriding the existing process
// environment) and captures CI/test detection into an EnvInfo value.
func DetectEnv() EnvInfo {
	// Missing env files are the normal case.
	_ = godotenv.Load(".env", ".env.local")

	return EnvInfo{
		CI:   envTruthy("CI") || envSet("GITHUB_ACTIONS") || envSet("GITLAB_CI") || envSet("BUILDKITE"),
		Test: envTruthy("NODE_TEST") || envSet("VITEST") || envSet("JEST_WORKER_ID"),
	}
}

func envSet(key string) bool {
	return os.Getenv(key) != ""
}

func envTruthy(key string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	// CI providers commonly export CI=true, but a bare CI=1 or CI=yes also counts.
	return v == "yes"
}
