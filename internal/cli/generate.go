package cli

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/service"
	"github.com/unkn0wn-root/qrcache/store"
)

func generateCommand() *cli.Command {
	var (
		cfg    config
		out    string
		req    service.Request
		width  int64
		height int64
		owner  int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "PNG output file; - writes to stdout",
			Value:       "-",
			Destination: &out,
		},
		&cli.IntFlag{
			Name:        "width",
			Usage:       "Image width in pixels",
			Destination: &width,
		},
		&cli.IntFlag{
			Name:        "height",
			Usage:       "Image height in pixels",
			Destination: &height,
		},
		&cli.StringFlag{
			Name:        "color",
			Usage:       "Foreground color as #RRGGBB",
			Destination: &req.Color,
		},
		&cli.StringFlag{
			Name:        "background",
			Usage:       "Background color as #RRGGBB",
			Destination: &req.BackgroundColor,
		},
		&cli.IntFlag{
			Name:        "owner",
			Usage:       "Owning user ID",
			Destination: &owner,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate and store one QR code",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one text argument is required")
			}
			req.Text = c.Args().First()
			req.Width, req.Height = int(width), int(height)

			a, err := cfg.newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			res, err := a.svc.GenerateOne(ctx, &req, store.ID(owner))
			if err != nil {
				return err
			}
			a.log.Info("code generated", qrcache.Fields{"id": res.ID, "size": res.Size(), "colors": res.Colors()})
			return writeImage(out, res.Image)
		},
	}
}

func writeImage(path string, img []byte) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return goerr.Wrap(err, "failed to create output", goerr.V("path", path))
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(img); err != nil {
		return goerr.Wrap(err, "failed to write image", goerr.V("path", path))
	}
	return nil
}
