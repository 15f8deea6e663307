package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/qrcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	ClearedEvery  uint64
	// Optional key redactor. Defaults to SHA-256 prefix, since keys embed
	// user searches and emails.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	clearedCtr  atomic.Uint64
}

var _ qrcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("qrcache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("qrcache.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenSnapshotError(ns string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("qrcache.gen_snapshot_error",
		"ns", ns,
		"err", err)
}

func (h *Hooks) GenBumpError(ns string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("qrcache.gen_bump_error",
		"ns", ns,
		"err", err)
}

func (h *Hooks) ClearOutage(ns string, bumpErr, purgeErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("qrcache.clear_outage",
		"ns", ns,
		"bump_err", bumpErr,
		"purge_err", purgeErr)
}

func (h *Hooks) Cleared(ns string, epoch uint64) {
	if h.l == nil || !sample(h.opts.ClearedEvery, &h.clearedCtr) {
		return
	}
	h.l.Debug("qrcache.cleared",
		"ns", ns,
		"epoch", epoch)
}
