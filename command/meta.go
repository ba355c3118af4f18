package command

import (
	"flag"
	"io"

	"github.com/mitchellh/cli"
)

// FlagSetFlags is an enum to define what flags are present in the default
// FlagSet returned by Meta.FlagSet.
type FlagSetFlags uint

const (
	// FlagSetNone provides a flag set with no pre-registered flags.
	FlagSetNone FlagSetFlags = 0

	// FlagSetClient provides the flag set used by commands that talk to a
	// running agent or its backing stores.
	FlagSetClient FlagSetFlags = 1 << iota
)

// Meta contains the meta-options and functionality that nearly every command
// inherits.
type Meta struct {
	UI cli.Ui
}

// FlagSet returns a FlagSet with the common flags pre-registered depending
// on the FlagSetFlags passed. Output is discarded so commands control their
// own usage rendering.
func (m *Meta) FlagSet(n string, fs FlagSetFlags) *flag.FlagSet {
	f := flag.NewFlagSet(n, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	return f
}
