package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/grammatch/internal/compiler"
	"github.com/roach88/grammatch/internal/loader"
)

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Line    int       // Text format line if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
// Grammar validation codes (E2xx) live in package compiler.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeLoadFailed  = "E004" // CUE grammar failed to compile
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeParseFailed = "E006" // Text grammar failed to parse
	ErrCodeWriteFailed = "E007" // File or database write error
	ErrCodeRecognition = "E008" // Candidate hit a recognition error
	ErrCodeDatabase    = "E009" // Database open or read error
	ErrCodeTestFailed  = "E010" // One or more scenarios failed
)

// LoadDocument reads a grammar document from path, converting failures to
// *LoadError with a stable code.
func LoadDocument(path string, opts loader.Options) (*loader.Document, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("input file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing input file: %v", err)}
	}

	doc, err := loader.LoadFile(path, opts)
	if err != nil {
		return nil, convertLoadError(err)
	}
	return doc, nil
}

// convertLoadError converts a loader or compiler error to a LoadError with
// position info.
func convertLoadError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}

	var parseErr *loader.ParseError
	if errors.As(err, &parseErr) {
		return &LoadError{
			Code:    ErrCodeParseFailed,
			Message: parseErr.Error(),
			Line:    parseErr.Line,
		}
	}

	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// outputLoadError reports a load failure and returns the matching exit error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
	// Unreadable input is a command-level error (exit code 2)
	return WrapExitError(ExitCommandError, loadErr.Code, err)
}
