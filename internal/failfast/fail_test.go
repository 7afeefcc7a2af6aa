package failfast

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"deploycli/internal/config"
	"deploycli/internal/deployer"
)

func TestClassify(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"missing argument", fmt.Errorf("%w: environment", ErrMissingArgument), KindMissingArgument},
		{"no config", config.ErrConfigNotFound, KindConfigNotFound},
		{"explicit path missing", &config.NotFoundError{Path: "/x"}, KindConfigNotFound},
		{"unsupported", fmt.Errorf("%w: a.txt", config.ErrUnsupportedFormat), KindUnsupportedFormat},
		{"parse", &config.ParseError{Path: "/x", Underlying: errors.New("bad")}, KindParse},
		{"env", &config.EnvironmentNotFoundError{Env: "qa"}, KindEnvNotFound},
		{"validation", &deployer.ValidationError{Env: "qa", Field: "host", Reason: "is required"}, KindValidation},
		{"deploy", &deployer.DeployError{Env: "qa", Underlying: errors.New("exit status 1")}, KindDeploy},
		{"unknown", errors.New("disk full"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Name, Classify(tt.err).Name)
		})
	}
}

func TestReportClassifiedIsOneLine(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	code := Report(&buf, &config.ParseError{Path: "/p/.deployrc", Underlying: errors.New("unexpected end of JSON input")})

	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "🧩 malformed configuration file /p/.deployrc: unexpected end of JSON input\n", buf.String())
}

func TestReportUnclassifiedIncludesStack(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	err := &deployer.DeployError{
		Env:        "production",
		Stderr:     "  host key verification failed",
		Underlying: pkgerrors.Wrap(errors.New("exit status 255"), "pm2 deploy"),
	}
	code := Report(&buf, err)

	assert.Equal(t, ExitFailure, code)
	out := buf.String()
	assert.Contains(t, out, "💥 deploy to production failed: pm2 deploy: exit status 255\n")
	assert.Contains(t, out, "host key verification failed")
	assert.Contains(t, out, "stack:")
	assert.Contains(t, out, "TestReportUnclassifiedIncludesStack")
}

func TestReportNil(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, Report(&buf, nil))
	assert.Empty(t, buf.String())
}
