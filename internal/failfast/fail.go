package failfast

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"

	"deploycli/internal/config"
	"deploycli/internal/deployer"
)

const ExitFailure = 1

var ErrMissingArgument = errors.New("missing argument")

// Kind groups errors that are reported the same way.
type Kind struct {
	Name   string
	Symbol string
	Color  *color.Color
	// Unclassified kinds are printed with a stack trace.
	Unclassified bool
}

var (
	KindMissingArgument   = Kind{Name: "missing-argument", Symbol: "✋", Color: color.New(color.FgYellow, color.Bold)}
	KindConfigNotFound    = Kind{Name: "config-not-found", Symbol: "🔍", Color: color.New(color.FgRed, color.Bold)}
	KindUnsupportedFormat = Kind{Name: "unsupported-format", Symbol: "📄", Color: color.New(color.FgRed, color.Bold)}
	KindParse             = Kind{Name: "parse", Symbol: "🧩", Color: color.New(color.FgRed, color.Bold)}
	KindEnvNotFound       = Kind{Name: "environment-not-found", Symbol: "🌐", Color: color.New(color.FgRed, color.Bold)}
	KindValidation        = Kind{Name: "validation", Symbol: "⚠️ ", Color: color.New(color.FgRed, color.Bold)}
	KindDeploy            = Kind{Name: "deploy", Symbol: "💥", Color: color.New(color.FgRed, color.Bold), Unclassified: true}
	KindUnknown           = Kind{Name: "unknown", Symbol: "❌", Color: color.New(color.FgRed, color.Bold), Unclassified: true}
)

// Classify maps err to the kind it is reported as.
func Classify(err error) Kind {
	var deployErr *deployer.DeployError
	switch {
	case errors.Is(err, ErrMissingArgument):
		return KindMissingArgument
	case errors.Is(err, config.ErrConfigNotFound):
		return KindConfigNotFound
	case errors.Is(err, config.ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, config.ErrMalformed):
		return KindParse
	case errors.Is(err, config.ErrEnvironmentNotFound):
		return KindEnvNotFound
	case errors.Is(err, deployer.ErrValidation):
		return KindValidation
	case errors.As(err, &deployErr):
		return KindDeploy
	}
	return KindUnknown
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Report writes err to w and returns the process exit code. Classified
// errors get a single line; unclassified ones also get the stack recorded
// when the error was wrapped.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	kind := Classify(err)

	msg := err.Error()
	detail := ""
	if first, rest, ok := strings.Cut(msg, "\n"); ok {
		msg, detail = first, rest
	}
	fmt.Fprintf(w, "%s %s\n", kind.Symbol, kind.Color.Sprint(msg))

	if !kind.Unclassified {
		return ExitFailure
	}
	if detail != "" {
		fmt.Fprintln(w, detail)
	}
	var st stackTracer
	if errors.As(err, &st) {
		fmt.Fprintf(w, "%s%+v\n", color.New(color.Faint).Sprint("stack:"), st.StackTrace())
	}
	return ExitFailure
}
