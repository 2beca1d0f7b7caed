package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPoliciesCI(t *testing.T) {
	p := DefaultPolicies(EnvInfo{CI: true})

	assert.Equal(t, PolicyThrow, p.Lint)
	assert.Equal(t, PolicyError, p.ForgottenExports)
	assert.Equal(t, PolicyFail, p.DocWarnings)
	assert.False(t, p.LocalExport)
	assert.Equal(t, DocConfigValidate, p.DocConfig)
}

func TestDefaultPoliciesLocal(t *testing.T) {
	p := DefaultPolicies(EnvInfo{CI: false})

	assert.Equal(t, PolicyError, p.Lint)
	assert.Equal(t, PolicyInclude, p.ForgottenExports)
	assert.Equal(t, PolicyLog, p.DocWarnings)
	assert.True(t, p.LocalExport)
	assert.Equal(t, DocConfigWrite, p.DocConfig)
}

func TestResolvePoliciesLintOverride(t *testing.T) {
	p := ResolvePolicies(EnvInfo{CI: true}, LintConfig{Policy: "warn"})
	assert.Equal(t, PolicyWarn, p.Lint)

	// Unknown override falls back to the default.
	p = ResolvePolicies(EnvInfo{CI: true}, LintConfig{Policy: "bogus"})
	assert.Equal(t, PolicyThrow, p.Lint)

	// Other entries stay fixed regardless of override.
	assert.False(t, p.LocalExport)
}
