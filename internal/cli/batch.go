package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/service"
	"github.com/unkn0wn-root/qrcache/store"
)

// batchFile is the YAML input of the batch command:
//
//	owner: 3
//	items:
//	  - text: https://example.com
//	    width: 200
//	  - text: hello
//	    color: "#112233"
type batchFile struct {
	Owner int64              `yaml:"owner"`
	Items []*service.Request `yaml:"items"`
}

func readBatch(r io.Reader) (*batchFile, error) {
	var b batchFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, goerr.New("batch file is empty")
		}
		return nil, goerr.Wrap(err, "failed to parse batch file")
	}
	if b.Items == nil {
		b.Items = []*service.Request{}
	}
	return &b, nil
}

func batchCommand() *cli.Command {
	var (
		cfg        config
		file       string
		outDir     string
		bestEffort bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "YAML batch file",
			Required:    true,
			Destination: &file,
		},
		&cli.StringFlag{
			Name:        "out-dir",
			Usage:       "Directory for <id>.png files",
			Value:       ".",
			Destination: &outDir,
		},
		&cli.BoolFlag{
			Name:        "best-effort",
			Usage:       "Keep going past failed items",
			Destination: &bestEffort,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "batch",
		Usage: "Generate and store every code in a batch file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			f, err := os.Open(file)
			if err != nil {
				return goerr.Wrap(err, "failed to open batch file", goerr.V("path", file))
			}
			b, err := readBatch(f)
			_ = f.Close()
			if err != nil {
				return err
			}

			a, err := cfg.newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			owner := store.ID(b.Owner)
			if !bestEffort {
				results, err := a.svc.GenerateMany(ctx, b.Items, owner)
				if err != nil {
					return err
				}
				for _, res := range results {
					if err := writeResult(outDir, res); err != nil {
						return err
					}
				}
				a.log.Info("batch written", qrcache.Fields{"count": len(results), "dir": outDir})
				return nil
			}

			outcomes, err := a.svc.GenerateManyBestEffort(ctx, b.Items, owner)
			if err != nil {
				return err
			}
			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					a.log.Warn("batch item failed", qrcache.Fields{"index": o.Index, "err": o.Err})
					continue
				}
				if err := writeResult(outDir, o.Result); err != nil {
					return err
				}
			}
			a.log.Info("batch written", qrcache.Fields{"count": len(outcomes) - failed, "failed": failed, "dir": outDir})
			if failed > 0 {
				return fmt.Errorf("%d of %d batch items failed", failed, len(outcomes))
			}
			return nil
		},
	}
}

func writeResult(dir string, res *service.Result) error {
	name := filepath.Join(dir, strconv.FormatInt(int64(res.ID), 10)+".png")
	return writeImage(name, res.Image)
}
