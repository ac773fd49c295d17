// Package detector selects how task progress is presented.
package detector

import (
	"os"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode is the rendering mode of a run.
type OutputMode int

const (
	// ModeAuto picks a mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive renderer.
	ModeTUI
	// ModeLinear forces the line-oriented renderer.
	ModeLinear
)

// Flag values accepted by ParseMode.
const (
	FlagAuto   = "auto"
	FlagTUI    = "tui"
	FlagLinear = "linear"
)

// DetectEnvironment returns ModeTUI when stdout is a terminal outside CI and
// ModeLinear otherwise.
func DetectEnvironment() OutputMode {
	return detect(term.IsTerminal(int(os.Stdout.Fd())), os.Getenv("CI"))
}

func detect(isTTY bool, ci string) OutputMode {
	if !isTTY || ci == "true" || ci == "1" {
		return ModeLinear
	}
	return ModeTUI
}

// ParseMode converts an --output flag value. An empty value means auto.
// "ci" is accepted as an alias of linear.
func ParseMode(flag string) (OutputMode, error) {
	switch flag {
	case FlagAuto, "":
		return ModeAuto, nil
	case FlagTUI:
		return ModeTUI, nil
	case FlagLinear, "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "output"), "value", flag)
	}
}

// Resolve applies an explicit mode over the detected one.
func Resolve(detected, requested OutputMode) OutputMode {
	if requested == ModeAuto {
		return detected
	}
	return requested
}
