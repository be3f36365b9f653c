package main

import (
	"context"
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"neuromlcap/internal/model"
)

const (
	exitSuccess      = 0
	exitError        = 1
	exitConfigError  = 2
	exitNotFound     = 3
	exitExternalTool = 4
)

// usageError marks bad invocations; they exit like configuration errors.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func exitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &usage), errors.Is(err, model.ErrConfig):
		return exitConfigError
	case errors.Is(err, model.ErrNotFound):
		return exitNotFound
	case errors.Is(err, model.ErrExternalTool):
		return exitExternalTool
	default:
		return exitError
	}
}

// handleError prints err and returns the process exit code for it.
func handleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return exitSuccess
	}
	red := color.New(color.FgRed, color.Bold)
	if errors.Is(err, context.Canceled) {
		red.Fprintln(cmd.ErrOrStderr(), "Operation cancelled")
		return exitError
	}
	red.Fprint(cmd.ErrOrStderr(), "Error: ")
	cmd.PrintErrln(err)

	var toolErr *model.ExternalToolError
	if errors.As(err, &toolErr) && len(toolErr.Output) > 0 {
		if v := cmd.Flag("verbose"); v != nil && v.Changed {
			cmd.PrintErrln("Engine output:")
			cmd.PrintErrln(toolErr.Output)
		}
	}
	return exitCode(err)
}
