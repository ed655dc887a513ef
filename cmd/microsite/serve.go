package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(state *cliState) *cobra.Command {
	var addr string
	var noEditor bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor API and live pages, reloading on file changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := state.config
			if trimmed := strings.TrimSpace(addr); trimmed != "" {
				cfg.Server.Addr = trimmed
			}
			if noEditor {
				cfg.Editor.Enabled = false
			}
			cfg.Storage.Watch = true

			module, err := state.build(cmd, cfg)
			if err != nil {
				return err
			}
			defer module.Close()

			ctx := cmd.Context()
			if err := module.Watch(ctx); err != nil {
				return err
			}
			handler, err := module.Handler()
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			success(cmd.OutOrStdout(), "microsite serving on %s\n", cfg.Server.Addr)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			module.Container().API().Close()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			faint(cmd.OutOrStdout(), "microsite stopped\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&noEditor, "no-editor", false, "serve pages without the editor API")
	return cmd
}
