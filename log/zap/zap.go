package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/qrcache"
)

var _ qrcache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

func (z Logger) Debug(msg string, f qrcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f qrcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f qrcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f qrcache.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order so JSON lines are stable.
func zf(f qrcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
