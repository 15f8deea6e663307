package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/server"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "HTTP listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("QRCACHE_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := cfg.newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					a.log.Error("shutdown failed", qrcache.Fields{"err": err})
				}
			}()

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(a.svc, a.log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("listening", qrcache.Fields{"addr": addr, "cache": cfg.cacheBackend, "store": cfg.storeKind})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "server failed", goerr.V("addr", addr))
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("shutting down", nil)
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				return goerr.Wrap(err, "failed to shut down server")
			}
			return nil
		},
	}
}
