package config

// Policy is a failure-handling policy for a pipeline phase.
type Policy string

const (
	// PolicyWarn logs and continues.
	PolicyWarn Policy = "warn"
	// PolicyError logs, continues, and remembers the failure for the final verdict.
	PolicyError Policy = "error"
	// PolicyThrow aborts the mode immediately.
	PolicyThrow Policy = "throw"
	// PolicyInclude logs diagnostics as informational output.
	PolicyInclude Policy = "include"
	// PolicyFail marks the phase failed after collecting all diagnostics.
	PolicyFail Policy = "fail"
	// PolicyLog emits diagnostics without affecting the verdict.
	PolicyLog Policy = "log"
)

// DocConfigMode controls handling of the generated documentation-tool config.
type DocConfigMode string

const (
	// DocConfigWrite regenerates the config on disk.
	DocConfigWrite DocConfigMode = "write"
	// DocConfigValidate checks the existing config and fails if stale.
	DocConfigValidate DocConfigMode = "validate"
)

// Policies is the resolved per-phase failure policy set for one build.
type Policies struct {
	// Lint applies to documentation lint findings.
	Lint Policy
	// ForgottenExports applies to rollup "forgotten export" diagnostics.
	ForgottenExports Policy
	// DocWarnings applies to documentation-syntax warnings from the rollup tool.
	DocWarnings Policy
	// LocalExport is true when artifacts may be exported to auxiliary local
	// directories after the build.
	LocalExport bool
	// DocConfig selects write vs. validate for the generated doc config.
	DocConfig DocConfigMode
}

// DefaultPolicies reproduces the CI-aware default table:
//
//	lint failure        -> throw in CI, error locally
//	forgotten exports   -> error in CI, include (log) locally
//	doc warnings        -> fail in CI, log locally
//	local export        -> always skipped in CI
//	generated doc-config -> validate-and-fail-if-stale in CI, write locally
func DefaultPolicies(env EnvInfo) Policies {
	if env.CI {
		return Policies{
			Lint:             PolicyThrow,
			ForgottenExports: PolicyError,
			DocWarnings:      PolicyFail,
			LocalExport:      false,
			DocConfig:        DocConfigValidate,
		}
	}
	return Policies{
		Lint:             PolicyError,
		ForgottenExports: PolicyInclude,
		DocWarnings:      PolicyLog,
		LocalExport:      true,
		DocConfig:        DocConfigWrite,
	}
}

// ResolvePolicies applies explicit config overrides on top of the CI-aware
// defaults. Only the lint policy is user-overridable; the rest of the table
// is fixed by environment.
func ResolvePolicies(env EnvInfo, lint LintConfig) Policies {
	p := DefaultPolicies(env)
	switch Policy(lint.Policy) {
	case PolicyWarn, PolicyError, PolicyThrow:
		p.Lint = Policy(lint.Policy)
	}
	return p
}
