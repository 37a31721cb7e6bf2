package ui

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError renders a message with optional suggestions and hints
//
// Example output:
//
//	❌ UNKNOWN KIND: projet
//
//	   Did you mean: project, projects?
//
//	   → List kinds: nano kinds
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
	hint := color.New(color.FgYellow)
	cmd := color.New(color.FgCyan)
	if opts.NoColor {
		for _, c := range []*color.Color{header, body, hint, cmd} {
			c.DisableColor()
		}
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, d := range opts.Details {
		body.Fprintf(&b, "   %s\n", d)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, c := range opts.HelpCommands {
			cmd.Fprintf(&b, "   → %s\n", c)
		}
	}
	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// UnknownKindError reports a resource kind name that does not exist
func UnknownKindError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:      "Unknown kind",
		Problem:      name,
		Suggestions:  suggestions,
		HelpCommands: []string{"List kinds: nano kinds"},
		NoColor:      noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "Configuration error",
		Problem: message,
		HelpCommands: []string{
			"Set NANO_AUTH_IDENTIFIER and NANO_AUTH_SECRET, or write them to nano.yaml",
			"Get help: nano --help",
		},
		NoColor: noColor,
	})
}

// FaultError renders a client failure with hints chosen by its category
func FaultError(err error, noColor bool) string {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		return FormatError(ErrorOptions{Problem: err.Error(), NoColor: noColor})
	}

	opts := ErrorOptions{Problem: fe.Error(), NoColor: noColor}
	switch fe.Category {
	case fault.CategoryTransport:
		opts.Context = "Connection failed"
		opts.HelpCommands = []string{"Check api.base_url and your network, then retry"}
	case fault.CategoryService:
		opts.Context = "Request rejected"
		for _, d := range fe.Details {
			opts.Details = append(opts.Details, describeDetail(d.Title, d.Detail, d.Code))
		}
		if fe.Status == http.StatusUnauthorized {
			opts.HelpCommands = []string{"Log in again: nano login"}
		}
	case fault.CategoryDecode:
		opts.Context = "Unexpected response"
		opts.HelpCommands = []string{"Retry with --lenient to accept unknown resource kinds"}
	case fault.CategoryContract:
		opts.Context = "Invalid request"
	}
	return FormatError(opts)
}

func describeDetail(title, detail, code string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{title, detail} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if code != "" {
		parts = append(parts, "("+code+")")
	}
	return strings.Join(parts, " ")
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}
