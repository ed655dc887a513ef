package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-microsite"
	editorcmd "github.com/goliatone/go-microsite/internal/commands/editor"
	"github.com/goliatone/go-microsite/internal/markdown"
	"github.com/spf13/cobra"
)

func newImportCommand(state *cliState) *cobra.Command {
	var (
		dryRun    bool
		recursive bool
	)
	cmd := &cobra.Command{
		Use:   "import <file.md|dir>...",
		Short: "Append markdown files to the site document as new pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.config
			cfg.Editor.Enabled = true
			cfg.Editor.Debounce = 0

			module, err := state.build(cmd, cfg)
			if err != nil {
				return err
			}
			defer module.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			imported := 0
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if info.IsDir() {
					ids, err := importDirectory(ctx, module, path, recursive, cfg.Markdown)
					if err != nil {
						return fmt.Errorf("import %s: %w", path, err)
					}
					for _, id := range ids {
						faint(out, "imported %s as %s\n", path, id)
					}
					imported += len(ids)
					continue
				}
				source, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				if err := module.Execute(ctx, microsite.EditCommand{Kind: editorcmd.KindImportMarkdown, Source: string(source)}); err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				faint(out, "imported %s\n", path)
				imported++
			}

			diff, err := module.Editor().Diff()
			if err != nil {
				return err
			}
			printDiff(out, diff, false)
			if dryRun {
				warn(out, "dry run: document not saved\n")
				return nil
			}
			if err := module.Execute(ctx, microsite.EditCommand{Kind: editorcmd.KindSave}); err != nil {
				return err
			}
			success(out, "imported %d page(s)\n", imported)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the change without saving")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into sub-directories")
	return cmd
}

// importDirectory appends every markdown file under dir, in path order, and
// returns the page ids that were assigned.
func importDirectory(ctx context.Context, module *microsite.Module, dir string, recursive bool, cfg microsite.MarkdownConfig) ([]string, error) {
	svc, err := markdown.NewService(markdown.Config{
		BasePath:  dir,
		Recursive: recursive,
		Parser:    markdown.ParseOptionsFrom(cfg),
	}, nil)
	if err != nil {
		return nil, err
	}
	pages, err := svc.ImportDirectory(ctx, ".")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pages))
	for _, page := range pages {
		id, err := module.Editor().AddPage(page)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
