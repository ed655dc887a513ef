package main

import (
	"strings"

	"github.com/goliatone/go-microsite"
	"github.com/spf13/cobra"
)

func newRenderCommand(state *cliState) *cobra.Command {
	var (
		outDir  string
		baseURL string
		pages   []string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Prerender every visible page to static HTML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := state.config
			cfg.Editor.Enabled = false
			if trimmed := strings.TrimSpace(outDir); trimmed != "" {
				cfg.Generator.OutputDir = trimmed
			}
			if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
				cfg.Generator.BaseURL = trimmed
				cfg.Generator.Sitemap = true
				cfg.Generator.Robots = true
			}

			module, err := state.build(cmd, cfg)
			if err != nil {
				return err
			}
			defer module.Close()

			result, err := module.Prerender(cmd.Context(), microsite.BuildOptions{PageIDs: pages, DryRun: dryRun})
			out := cmd.OutOrStdout()
			if result != nil {
				for _, page := range result.Rendered {
					if page.Skipped {
						faint(out, "  = %-24s %s\n", page.Route, page.Output)
						continue
					}
					_, _ = insertColor.Fprintf(out, "  + %-24s %s\n", page.Route, page.Output)
				}
			}
			if err != nil {
				fail(out, "render failed: %v\n", err)
				return err
			}
			verb := "rendered"
			if dryRun {
				verb = "would render"
			}
			success(out, "%s %d page(s), %d unchanged, %d upload(s) to %s in %s\n",
				verb, result.PagesBuilt, result.PagesSkipped, result.AssetsCopied, cfg.Generator.OutputDir, result.Duration.Round(1e6))
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (overrides generator.output_dir)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public site URL; enables sitemap.xml and robots.txt")
	cmd.Flags().StringSliceVar(&pages, "page", nil, "only render these page ids")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without writing files")
	return cmd
}
