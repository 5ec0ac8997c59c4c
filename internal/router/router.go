package router

import (
	"fmt"
	"strconv"

	"github.com/shinji-kodama/mljob/internal/model"
)

// Effect mutates the request under construction when its flag is seen.
// For value flags, value holds the consumed token; for boolean flags it
// is always empty.
type Effect func(req *model.InvocationRequest, value string) error

// Flag describes one recognized orchestration flag: its spellings
// (short and long forms map to the same entry), whether it consumes the
// following token as a value, and the effect it applies.
type Flag struct {
	// Names lists every accepted spelling, e.g. {"-b", "--build"}.
	Names []string

	// TakesValue reports whether the token after the flag is consumed
	// as the flag's value.
	TakesValue bool

	// Usage is the one-line help text shown in usage output.
	Usage string

	// Apply is the effect executed when the flag is matched.
	Apply Effect
}

// Table is the static set of flags a command recognizes. Everything not
// in the table is pass-through.
type Table []Flag

// lookup returns the table entry matching the given token, or nil.
func (t Table) lookup(token string) *Flag {
	for i := range t {
		for _, name := range t[i].Names {
			if name == token {
				return &t[i]
			}
		}
	}
	return nil
}

// MissingValueError reports a value flag appearing as the final token,
// with nothing left to consume as its value. This is a usage error and
// dispatch must not proceed.
type MissingValueError struct {
	// Flag is the spelling that appeared without a value.
	Flag string
}

// Error satisfies the error interface.
func (e *MissingValueError) Error() string {
	return fmt.Sprintf("flag %s requires a value", e.Flag)
}

// Parse routes the raw argument vector through the flag table and
// returns the resulting request.
//
// Each token is classified exactly once: recognized flags (and their
// values) are consumed, everything else lands in Passthrough in original
// order. The returned request is never mutated afterwards.
func Parse(table Table, args []string) (*model.InvocationRequest, error) {
	req := &model.InvocationRequest{Action: model.ActionNone}

	for i := 0; i < len(args); {
		token := args[i]

		flag := table.lookup(token)
		if flag == nil {
			// Unrecognized: forward verbatim.
			req.Passthrough = append(req.Passthrough, token)
			i++
			continue
		}

		value := ""
		consumed := 1
		if flag.TakesValue {
			if i+1 >= len(args) {
				return nil, &MissingValueError{Flag: token}
			}
			value = args[i+1]
			consumed = 2
		}

		if err := flag.Apply(req, value); err != nil {
			return nil, err
		}
		i += consumed
	}

	return req, nil
}

// globalFlags returns the table entries every command recognizes: the
// binary's persistent --verbose and --json flags. The subcommands
// disable cobra flag parsing so that unknown tokens can pass through
// verbatim, which means cobra never sees these flags when they appear
// after the subcommand name — the router must consume them itself.
func globalFlags() Table {
	return Table{
		{
			Names: []string{"-v", "--verbose"},
			Usage: "enable verbose output",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.Verbose = true
				return nil
			},
		},
		{
			Names: []string{"--json"},
			Usage: "output in JSON format",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.JSON = true
				return nil
			},
		},
	}
}

// TrainTable returns the flag table for the train command (Variant A).
// Only the process-count flag, the hostfile flag and the global flags
// are orchestration; every other token belongs to the wrapped training
// command.
func TrainTable() Table {
	table := Table{
		{
			Names:      []string{"-np"},
			TakesValue: true,
			Usage:      "number of parallel workers (required, >= 1)",
			Apply: func(req *model.InvocationRequest, value string) error {
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("invalid process count %q: %w", value, err)
				}
				req.ProcessCount = n
				return nil
			},
		},
		{
			Names:      []string{"--hostfile"},
			TakesValue: true,
			Usage:      "YAML hostfile for multi-node launches",
			Apply: func(req *model.InvocationRequest, value string) error {
				req.Hostfile = value
				return nil
			},
		},
	}
	return append(table, globalFlags()...)
}

// ImageTable returns the flag table for the image command (Variant B).
//
// Build and run are mutually exclusive with a last-wins policy: each
// occurrence simply overwrites Action, so the later flag in scan order
// determines the selected action. Wheel, push and force are independent
// modifiers. --default selects run with force and push cleared.
func ImageTable() Table {
	table := Table{
		{
			Names: []string{"-b", "--build"},
			Usage: "build the toolkit container image",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.Action = model.ActionBuild
				return nil
			},
		},
		{
			Names: []string{"-r", "--run"},
			Usage: "run the toolkit container image interactively",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.Action = model.ActionRun
				return nil
			},
		},
		{
			Names: []string{"-w", "--wheel"},
			Usage: "build the source wheel before the image build",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.Modes.Wheel = true
				return nil
			},
		},
		{
			Names: []string{"-p", "--push"},
			Usage: "push the built image to the registry (with --build)",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.Modes.Push = true
				return nil
			},
		},
		{
			Names: []string{"-f", "--force"},
			Usage: "disable the build cache",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.Modes.Force = true
				return nil
			},
		},
		{
			Names: []string{"--default"},
			Usage: "run the image with force and push disabled",
			Apply: func(req *model.InvocationRequest, _ string) error {
				req.Action = model.ActionRun
				req.Modes.Force = false
				req.Modes.Push = false
				return nil
			},
		},
	}
	return append(table, globalFlags()...)
}

// Usage renders the flag table as usage text, one flag per line.
// The CLI layer prints this to stderr alongside usage errors.
func Usage(table Table) string {
	out := ""
	for _, f := range table {
		names := ""
		for i, name := range f.Names {
			if i > 0 {
				names += " | "
			}
			names += name
		}
		if f.TakesValue {
			names += " <value>"
		}
		out += fmt.Sprintf("  %-24s %s\n", names, f.Usage)
	}
	return out
}
