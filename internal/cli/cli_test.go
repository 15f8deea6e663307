package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/m-mizutani/gt"

	"github.com/unkn0wn-root/qrcache/service"
)

func TestReadBatch(t *testing.T) {
	b, err := readBatch(strings.NewReader(`
owner: 3
items:
  - text: https://example.com
    width: 200
  - text: hello
    color: "#112233"
`))
	gt.NoError(t, err)
	gt.Equal(t, b.Owner, int64(3))
	gt.A(t, b.Items).Length(2)
	gt.Equal(t, b.Items[0].Text, "https://example.com")
	gt.Equal(t, b.Items[0].Width, 200)
	gt.Equal(t, b.Items[1].Color, "#112233")
}

func TestReadBatchRejectsUnknownFieldsAndEmpty(t *testing.T) {
	_, err := readBatch(strings.NewReader("items:\n  - txt: typo\n"))
	gt.Error(t, err)

	_, err = readBatch(strings.NewReader(""))
	gt.Error(t, err)

	b, err := readBatch(strings.NewReader("owner: 1\n"))
	gt.NoError(t, err)
	gt.NotNil(t, b.Items)
	gt.A(t, b.Items).Length(0)
}

func TestNewAppBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, backend := range []string{backendMemory, backendRistretto, backendBigcache, backendRedis} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := config{
				logFormat:    formatConsole,
				logLevel:     "error",
				cacheBackend: backend,
				cacheCodec:   "msgpack",
				cacheEvents:  true,
				eventSample:  1,
				redisAddr:    mr.Addr(),
				storeKind:    storeMemory,
				ecLevel:      "M",
				cacheMaxItem: 1 << 20,
			}
			a, err := cfg.newApp(ctx, &bytes.Buffer{})
			gt.NoError(t, err)

			res, err := a.svc.GenerateOne(ctx, &service.Request{Text: "hello " + backend}, 0)
			gt.NoError(t, err)

			codes, err := a.svc.SearchByContent(ctx, backend)
			gt.NoError(t, err)
			gt.A(t, codes).Length(1)
			gt.Equal(t, codes[0].ID, res.ID)

			gt.NoError(t, a.Close(ctx))
		})
	}
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	base := config{logFormat: formatConsole, logLevel: "info", cacheBackend: backendMemory, storeKind: storeMemory, ecLevel: "L"}

	bad := base
	bad.cacheBackend = "memcached"
	_, err := bad.newApp(ctx, &bytes.Buffer{})
	gt.Error(t, err)

	bad = base
	bad.storeKind = "postgres"
	_, err = bad.newApp(ctx, &bytes.Buffer{})
	gt.Error(t, err)

	bad = base
	bad.ecLevel = "Z"
	_, err = bad.newApp(ctx, &bytes.Buffer{})
	gt.Error(t, err)

	bad = base
	bad.pngCompression = "max"
	_, err = bad.newApp(ctx, &bytes.Buffer{})
	gt.Error(t, err)

	bad = base
	bad.cacheCodec = "gob"
	_, err = bad.newApp(ctx, &bytes.Buffer{})
	gt.Error(t, err)
}

func TestRunGenerateWritesPNG(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "code.png")

	err := Run(context.Background(), []string{
		"qrcache", "generate",
		"--out", out,
		"--store", storeSQLite,
		"--sqlite-path", filepath.Join(dir, "codes.db"),
		"--log-level", "error",
		"--width", "120",
		"hello",
	})
	gt.True(t, err == nil)

	img, rerr := os.ReadFile(out)
	gt.NoError(t, rerr)
	gt.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}

func TestRunBatchWritesEveryItem(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "batch.yaml")
	gt.NoError(t, os.WriteFile(file, []byte("items:\n  - text: one\n  - text: two\n"), 0o600))

	err := Run(context.Background(), []string{
		"qrcache", "batch",
		"--file", file,
		"--out-dir", dir,
		"--log-level", "error",
	})
	gt.True(t, err == nil)

	matches, gerr := filepath.Glob(filepath.Join(dir, "*.png"))
	gt.NoError(t, gerr)
	gt.A(t, matches).Length(2)
}

func TestRunBatchFailsFast(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "batch.yaml")
	gt.NoError(t, os.WriteFile(file, []byte("items:\n  - text: one\n  - text: \"\"\n"), 0o600))

	err := Run(context.Background(), []string{
		"qrcache", "batch",
		"--file", file,
		"--out-dir", dir,
		"--log-level", "error",
	})
	gt.NotNil(t, err)
	gt.Equal(t, err.Code, 1)

	matches, gerr := filepath.Glob(filepath.Join(dir, "*.png"))
	gt.NoError(t, gerr)
	gt.A(t, matches).Length(0)
}
