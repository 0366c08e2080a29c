package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grammatch/internal/compiler"
	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/loader"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

type validateResponse struct {
	Status string           `json:"status"`
	Data   ValidationResult `json:"data"`
	Error  *CLIError        `json:"error"`
}

func TestValidate_ValidGrammar(t *testing.T) {
	path := writeInput(t, "input.txt", scenarioAInput)

	out, err := executeValidate(t, "text", path)
	require.NoError(t, err)
	assert.Equal(t, "✓ Grammar valid (3 rules, start 0)\n", out)
}

func TestValidate_ValidGrammarJSON(t *testing.T) {
	path := writeInput(t, "input.txt", "0: 1\n1: \"a\"\n2: \"b\"\n")

	out, err := executeValidate(t, "json", path)
	require.NoError(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Rules)
	assert.Len(t, resp.Data.Hash, 64)
	assert.Empty(t, resp.Data.Errors)
	assert.Equal(t, []grammar.RuleID{2}, resp.Data.Unreachable)
}

func TestValidate_InfoLines(t *testing.T) {
	path := writeInput(t, "input.txt", "0: 1 | 1 0\n1: \"a\"\n2: \"b\"\n")

	out, err := executeValidate(t, "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Grammar valid (3 rules, start 0)")
	assert.Contains(t, out, "info: self-referential rules")
	assert.Contains(t, out, "info: unreachable from rule 0: [2]")
}

func TestValidate_StartFlag(t *testing.T) {
	path := writeInput(t, "input.txt", scenarioAInput)

	out, err := executeValidate(t, "json", path, "--start", "2")
	require.NoError(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Start)
	assert.Equal(t, []grammar.RuleID{0, 1}, resp.Data.Unreachable)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		args     []string
		wantCode string
	}{
		{"dangling reference", "0: 1 7\n1: \"a\"\n", nil, compiler.ErrDanglingReference},
		{"undefined start", "0: 1\n1: \"a\"\n", []string{"--start", "5"}, compiler.ErrStartUndefined},
		{"left recursion", "0: 0 1 | 1\n1: \"a\"\n", nil, compiler.ErrNonConsumingRecursion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeInput(t, "input.txt", tt.input)

			out, err := executeValidate(t, "text", append([]string{path}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, "  "+tt.wantCode+": ")

			out, err = executeValidate(t, "json", append([]string{path}, tt.args...)...)
			require.Error(t, err)
			var resp validateResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.False(t, resp.Data.Valid)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	path := writeInput(t, "input.txt", "0: 1 7 | 8\n1: \"a\"\n")

	out, err := executeValidate(t, "json", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Errors, 2)
	for _, e := range resp.Data.Errors {
		assert.Equal(t, compiler.ErrDanglingReference, e.Code)
	}
}

func TestValidate_LoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantCode string
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.txt") },
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "text parse error",
			path:     func(t *testing.T) string { return writeInput(t, "bad.txt", "0: \"ab\"\n") },
			wantCode: ErrCodeParseFailed,
		},
		{
			name:     "cue compile error",
			path:     func(t *testing.T) string { return writeInput(t, "bad.cue", "grammar: {rules: [{id: 0, alt: [3.5]}]}\n") },
			wantCode: ErrCodeLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeValidate(t, "json", tt.path(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestValidate_VerboseGoesToStderr(t *testing.T) {
	path := writeInput(t, "input.txt", scenarioAInput)

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json", Verbose: true})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errBuf.String(), "Validating 3 rule(s)")
	assert.Contains(t, errBuf.String(), "grammar hash ")
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
}

func TestConvertLoadError(t *testing.T) {
	path := writeInput(t, "bad.txt", "0: 1\nx: 2\n")
	_, err := LoadDocument(path, loader.Options{})
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeParseFailed, loadErr.Code)
	assert.Equal(t, 2, loadErr.Line)
}
