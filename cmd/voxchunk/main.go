package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/voxchunk/internal/chunk"
	"github.com/fmueller/voxchunk/internal/cli"
	"github.com/fmueller/voxchunk/internal/config"
	"github.com/fmueller/voxchunk/internal/pipeline"
	"github.com/spf13/cobra"
)

const (
	exitFailure = 1
	exitUsage   = 2
	exitAborted = 3
)

func main() {
	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if shouldPrintUsageHint(err) {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", helpHintTarget(cmd, os.Args[1:]))
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrAborted):
		return exitAborted
	case shouldPrintUsageHint(err), errors.Is(err, chunk.ErrInvalidInput):
		return exitUsage
	default:
		return exitFailure
	}
}

func shouldPrintUsageHint(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, config.ErrInvalidSettings) {
		return true
	}

	message := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"accepts ",
		"requires at least",
		"requires at most",
		"requires between",
		"required flag",
		"missing required",
		"invalid settings",
	}

	for _, pattern := range patterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}

	return false
}

func helpHintTarget(root *cobra.Command, args []string) string {
	if root == nil {
		return "voxchunk"
	}

	target := root.CommandPath()
	if len(args) == 0 {
		return target
	}

	if strings.HasPrefix(args[0], "-") {
		return target
	}

	found, _, err := root.Find(args)
	if err == nil && found != nil {
		return found.CommandPath()
	}

	return target
}
