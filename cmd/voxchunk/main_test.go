package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fmueller/voxchunk/internal/chunk"
	"github.com/fmueller/voxchunk/internal/cli"
	"github.com/fmueller/voxchunk/internal/config"
	"github.com/fmueller/voxchunk/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func TestShouldPrintUsageHint(t *testing.T) {
	t.Parallel()

	require.True(t, shouldPrintUsageHint(errors.New("unknown command \"bad\" for \"voxchunk\"")))
	require.True(t, shouldPrintUsageHint(errors.New("unknown flag: --oops")))
	require.True(t, shouldPrintUsageHint(errors.New("accepts 1 arg(s), received 0")))
	require.True(t, shouldPrintUsageHint(errors.New("invalid settings: --format must be one of [text, json], got \"srt\"")))
	require.False(t, shouldPrintUsageHint(fmt.Errorf("%w at chunk 2 of 3", pipeline.ErrAborted)))
	require.False(t, shouldPrintUsageHint(errors.New("download model \"small\": context deadline exceeded")))
	require.False(t, shouldPrintUsageHint(nil))
}

func TestHelpHintTarget(t *testing.T) {
	t.Parallel()

	root := cli.NewRootCmd()
	require.Equal(t, "voxchunk", helpHintTarget(root, []string{"--badflag"}))
	require.Equal(t, "voxchunk", helpHintTarget(root, []string{"badcmd"}))
	require.Equal(t, "voxchunk transcribe", helpHintTarget(root, []string{"transcribe"}))
	require.Equal(t, "voxchunk transcribe", helpHintTarget(root, []string{"transcribe", "--copy"}))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, exitAborted, exitCode(fmt.Errorf("%w at chunk 1 of 1", pipeline.ErrAborted)))
	require.Equal(t, exitUsage, exitCode(errors.New("unknown flag: --oops")))
	require.Equal(t, exitUsage, exitCode(fmt.Errorf("segment audio: %w", chunk.ErrInvalidInput)))
	require.Equal(t, exitUsage, exitCode(fmt.Errorf("%w: --task is required", config.ErrInvalidSettings)))
	require.Equal(t, exitFailure, exitCode(errors.New("audio file not found")))
}
