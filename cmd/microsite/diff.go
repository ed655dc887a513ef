package main

import (
	"io"

	"github.com/goliatone/go-microsite/internal/editor"
	"github.com/goliatone/go-microsite/internal/storage"
	"github.com/spf13/cobra"
)

func newDiffCommand(state *cliState) *cobra.Command {
	var withContext bool
	cmd := &cobra.Command{
		Use:   "diff <document>",
		Short: "Show how a document file differs from the stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.config
			cfg.Editor.Enabled = false
			module, err := state.build(cmd, cfg)
			if err != nil {
				return err
			}
			defer module.Close()

			ctx := cmd.Context()
			stored, err := module.Store().Load(ctx)
			if err != nil {
				return err
			}
			other, err := storage.NewFileStore(args[0]).Load(ctx)
			if err != nil {
				return err
			}
			diff, err := editor.DiffDocuments(stored, other)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !diff.Changed() {
				success(out, "no differences\n")
				return nil
			}
			printDiff(out, diff, withContext)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withContext, "context", false, "print unchanged lines too")
	return cmd
}

func printDiff(w io.Writer, diff editor.DocumentDiff, withContext bool) {
	for _, line := range diff.Lines {
		switch line.Op {
		case editor.DiffInsert:
			_, _ = insertColor.Fprintf(w, "+ %s\n", line.Text)
		case editor.DiffDelete:
			_, _ = deleteColor.Fprintf(w, "- %s\n", line.Text)
		default:
			if withContext {
				faint(w, "  %s\n", line.Text)
			}
		}
	}
}
