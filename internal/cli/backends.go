package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fmueller/voxchunk/internal/config"
	"github.com/fmueller/voxchunk/internal/recognize"
	"github.com/fmueller/voxchunk/internal/whisper"
	"github.com/spf13/cobra"
)

func newBackendsCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List recognition backends and whether they are ready to use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			credentialsFn := app.credentialsFn
			if credentialsFn == nil {
				credentialsFn = app.loadCredentials
			}
			creds, err := credentialsFn()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BACKEND\tSTATUS")
			for _, name := range recognize.Names() {
				fmt.Fprintf(tw, "%s\t%s\n", name, app.backendStatus(name, creds))
			}
			return tw.Flush()
		},
	}
}

func (a *appState) backendStatus(name string, creds config.Credentials) string {
	if name != "whisper" {
		if err := creds.Require(name); err != nil {
			return err.Error()
		}
		return "ready"
	}

	if _, err := whisper.NewBundledEngine(a.log()); err != nil {
		return "engine not found"
	}
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return "model directory unavailable"
	}
	model, err := whisper.ResolveModel(a.model, modelDir)
	if err != nil {
		return err.Error()
	}
	if model.NeedsDownload {
		return fmt.Sprintf("ready (model %s downloads on first use)", model.Name)
	}
	return "ready"
}
