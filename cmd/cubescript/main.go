// Command cubescript is a minimal driver for the cubescript package: it
// loads one or more script files (or standard input, if none are
// given) and runs them against a freshly registered interpreter.
//
// Only a handful of commands are registered here (echo, +, +f) -- just
// enough to demonstrate NewCommand and run small arithmetic and echo
// scripts end to end. A full standard library is
// out of scope for this driver; embedders register their own commands
// through the cubescript package's API.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	cubescript "github.com/OctaForge/libcubescript-sub000"
	"github.com/OctaForge/libcubescript-sub000/internal/fileinput"
	"github.com/OctaForge/libcubescript-sub000/internal/flushio"
	"github.com/OctaForge/libcubescript-sub000/internal/logio"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	source, err := readSources(flag.Args())
	log.ErrorIf(err)
	if err != nil {
		return
	}

	in := cubescript.New(cubescript.WithOutput(flushio.NewWriteFlusher(os.Stdout)))
	th := in.Main()
	if err := registerBasicCommands(in); err != nil {
		log.ErrorIf(err)
		return
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	_, err = th.Run(ctx, source)
	log.ErrorIf(err)
}

// readSources concatenates every named file (or stdin, if names is
// empty) into one source string, using fileinput.Input's rune-at-a-time
// multi-reader queue the way the teacher's FIRST/THIRD driver chains
// its pre-stdin kernel source with the user's own input.
func readSources(names []string) (string, error) {
	var in fileinput.Input
	if len(names) == 0 {
		in.Queue = append(in.Queue, os.Stdin)
	} else {
		for _, name := range names {
			f, err := os.Open(name)
			if err != nil {
				return "", err
			}
			defer f.Close()
			in.Queue = append(in.Queue, f)
		}
	}

	var b strings.Builder
	for {
		r, _, err := in.ReadRune()
		if r != 0 {
			b.WriteRune(r)
		}
		if err != nil {
			break
		}
	}
	return b.String(), nil
}

func registerBasicCommands(in *cubescript.Interp) error {
	_, err := in.NewCommand("echo", "C", func(th *cubescript.Thread, args []cubescript.Value, ret *cubescript.Value) error {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.AsString()
		}
		os.Stdout.WriteString(strings.Join(parts, " "))
		os.Stdout.WriteString("\n")
		return nil
	})
	if err != nil {
		return err
	}
	_, err = in.NewCommand("+", "V", func(th *cubescript.Thread, args []cubescript.Value, ret *cubescript.Value) error {
		var sum cubescript.IntValue
		for _, a := range args {
			sum += a.AsInt()
		}
		*ret = cubescript.IntVal(sum)
		return nil
	})
	if err != nil {
		return err
	}
	_, err = in.NewCommand("+f", "V", func(th *cubescript.Thread, args []cubescript.Value, ret *cubescript.Value) error {
		var sum cubescript.FloatValue
		for _, a := range args {
			sum += a.AsFloat()
		}
		*ret = cubescript.FloatVal(sum)
		return nil
	})
	return err
}
