// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/spackenv/internal/config"
	"github.com/invowk/spackenv/internal/issue"
	"github.com/invowk/spackenv/internal/runtime"
	"github.com/invowk/spackenv/internal/spack"
	"github.com/invowk/spackenv/pkg/sdm"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
	// Style is the glamour style used for the catalog entry.
	Style string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage, style string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
		Style:         style,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError prints the styled message, then the issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		style := svcErr.Style
		if style == "" {
			style = string(config.ColorSchemeAuto)
		}
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// classifyError maps domain failures to issue catalog IDs and returns a
// styled message for CLI rendering.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, spack.ErrMissingEnvVar):
		issueID = issue.SpackRootNotSetId
	case errors.Is(err, spack.ErrRootNotFound):
		issueID = issue.SpackRootNotFoundId
	case errors.Is(err, spack.ErrSpackNotFound):
		issueID = issue.SpackNotFoundId
	case errors.Is(err, spack.ErrInvalidEnvName), errors.Is(err, sdm.ErrInvalidSpec):
		issueID = issue.InvalidEnvNameId
	case errors.Is(err, spack.ErrDescriptorNotFound):
		issueID = issue.DescriptorNotFoundId
	case errors.Is(err, spack.ErrDescriptorParse):
		issueID = issue.DescriptorParseErrorId
	case errors.Is(err, runtime.ErrShellNotFound), errors.Is(err, runtime.ErrRuntimeNotAvailable):
		issueID = issue.ShellNotFoundId
	case errors.Is(err, runtime.ErrCommandFailed):
		issueID = issue.CommandFailedId
	case errors.Is(err, config.ErrInvalidConfig):
		issueID = issue.ConfigLoadFailedId
	default:
		var ae *issue.ActionableError
		if errors.As(err, &ae) && ae.Operation == "load configuration" {
			issueID = issue.ConfigLoadFailedId
		}
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method, which shows the chain in verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
