package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/solace/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{
		// Styled tables only make sense on a terminal.
		Plain: !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	var closers []func() error
	app.Boot = func(cmd *cobra.Command) error {
		closeFn, err := wire(cmd, app)
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		return err
	}

	err := cli.NewRootCmd(app).Execute()
	for _, c := range closers {
		err = errors.Join(err, c())
	}
	return err
}
