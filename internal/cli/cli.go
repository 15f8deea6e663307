// Package cli wires the qrcache command line: an HTTP server plus one-shot
// generate and batch commands over the same service.
package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "qrcache",
		Usage: "QR code generation with cached lookups",
		Commands: []*cli.Command{
			serveCommand(),
			generateCommand(),
			batchCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}
	return nil
}
