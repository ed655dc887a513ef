package main

import (
	"errors"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/storage"
	"github.com/goliatone/go-microsite/internal/validation"
	"github.com/spf13/cobra"
)

var errInvalidDocument = errors.New("document is invalid")

func newValidateCommand(state *cliState) *cobra.Command {
	var restore bool
	cmd := &cobra.Command{
		Use:   "validate [document]",
		Short: "Check a site document against the schema and the uploads directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.config
			var (
				doc content.Document
				err error
			)
			if len(args) == 1 {
				doc, err = storage.NewFileStore(args[0]).Load(cmd.Context())
			} else {
				cfg.Editor.Enabled = false
				module, buildErr := state.build(cmd, cfg)
				if buildErr != nil {
					return buildErr
				}
				defer module.Close()
				doc, err = module.Store().Load(cmd.Context())
			}
			if err != nil {
				return err
			}

			report, err := validation.ValidateDocument(doc, validation.Options{
				UploadsDir:     cfg.Uploads.Dir,
				PublicPrefix:   cfg.Uploads.PublicPrefix,
				RestoreMissing: restore,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, issue := range report.Issues {
				fail(out, "error   %s: %s\n", location(issue), issue.Message)
			}
			for _, issue := range report.Warnings {
				warn(out, "warning %s: %s\n", location(issue), issue.Message)
			}
			for _, ref := range report.Restored {
				faint(out, "restored %s\n", ref)
			}
			if len(report.Missing) > 0 {
				warn(out, "%d upload reference(s) missing on disk\n", len(report.Missing))
			}
			faint(out, "%d upload reference(s), %d inline data URI(s)\n", len(report.UploadRefs), report.DataURIs)
			if !report.OK() {
				return errInvalidDocument
			}
			success(out, "document is valid (%d warning(s))\n", len(report.Warnings))
			return nil
		},
	}
	cmd.Flags().BoolVar(&restore, "restore", false, "move missing uploads back from the quarantine directory")
	return cmd
}

func location(issue validation.ValidationIssue) string {
	if issue.Location == "" {
		return "/"
	}
	return issue.Location
}
