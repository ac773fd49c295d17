package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/ui/output"
)

func TestColorProfile_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.Equal(t, termenv.Ascii, output.ColorProfile())
	assert.Equal(t, termenv.Ascii, output.ColorProfileANSI())
}

func TestColorProfileANSI_Default(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	assert.Equal(t, termenv.ANSI, output.ColorProfileANSI())
}

func TestNew_PlainWhenNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	out := output.New(buf)
	require.NotNil(t, out)

	_, err := out.WriteString(out.String("hello").Foreground(termenv.ANSIRed).String())
	require.NoError(t, err)
	assert.Equal(t, "hello", buf.String())
}

func TestNewWithProfile_NilWriter(t *testing.T) {
	out := output.NewWithProfile(nil, func() termenv.Profile { return termenv.Ascii })
	assert.NotNil(t, out)
}
