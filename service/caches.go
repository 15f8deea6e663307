package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/codec"
	"github.com/unkn0wn-root/qrcache/genstore"
	"github.com/unkn0wn-root/qrcache/internal/util"
	"github.com/unkn0wn-root/qrcache/provider"
	"github.com/unkn0wn-root/qrcache/provider/memory"
	"github.com/unkn0wn-root/qrcache/store"
)

const (
	// RecordsNamespace holds every view derived from stored codes and users.
	// It is cleared as a whole on each mutation.
	RecordsNamespace = "records"
	// ImagesNamespace holds rendered PNGs keyed by a hash of their inputs.
	// Those never go stale, so it is never cleared.
	ImagesNamespace = "images"
)

// Caches groups the memos the service reads through. The record memos share
// RecordsNamespace and one GenStore, so one Clear empties all of them.
type Caches struct {
	Images    qrcache.Memo[[]byte]
	Codes     qrcache.Memo[store.Code]
	CodeLists qrcache.Memo[[]store.Code]
	Users     qrcache.Memo[store.User]
	UserLists qrcache.Memo[[]store.User]

	provider provider.Provider
	gen      genstore.GenStore
}

type CacheConfig struct {
	Provider provider.Provider // nil => memory.New()
	GenStore genstore.GenStore // nil => one LocalGenStore for all memos
	// Codec names the record codec: "cbor" (default), "msgpack" or "json".
	// Images are stored raw.
	Codec          string
	TTL            time.Duration
	ComputeSetCost qrcache.SetCostFunc // default: encoded length
	// MaxEntryBytes bounds what a read may decode; larger entries are
	// dropped as undecodable. 0 disables the bound.
	MaxEntryBytes int
	Logger         qrcache.Logger
	Hooks          qrcache.Hooks
	Disabled       bool
}

// NewCaches builds the memos. The returned Caches owns cfg.Provider and
// cfg.GenStore and closes them on Close.
func NewCaches(cfg CacheConfig) (*Caches, error) {
	if cfg.Provider == nil {
		cfg.Provider = memory.New()
	}
	if cfg.GenStore == nil {
		cfg.GenStore = genstore.NewLocalGenStore()
	}
	if cfg.ComputeSetCost == nil {
		cfg.ComputeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}

	c := &Caches{provider: cfg.Provider, gen: cfg.GenStore}
	var err error
	if c.Images, err = newMemo[[]byte](cfg, ImagesNamespace, codec.Bytes{}); err != nil {
		return nil, err
	}
	if c.Codes, err = newRecordMemo[store.Code](cfg); err != nil {
		return nil, err
	}
	if c.CodeLists, err = newRecordMemo[[]store.Code](cfg); err != nil {
		return nil, err
	}
	if c.Users, err = newRecordMemo[store.User](cfg); err != nil {
		return nil, err
	}
	if c.UserLists, err = newRecordMemo[[]store.User](cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func newRecordMemo[V any](cfg CacheConfig) (qrcache.Memo[V], error) {
	cd, err := codec.ByName[V](cfg.Codec)
	if err != nil {
		return nil, err
	}
	return newMemo[V](cfg, RecordsNamespace, cd)
}

func newMemo[V any](cfg CacheConfig, ns string, cd codec.Codec[V]) (qrcache.Memo[V], error) {
	if cfg.MaxEntryBytes > 0 {
		cd = codec.Limit[V]{Inner: cd, MaxDecode: cfg.MaxEntryBytes}
	}
	return qrcache.New[V](qrcache.Options[V]{
		Namespace:      ns,
		Provider:       cfg.Provider,
		Codec:          cd,
		GenStore:       cfg.GenStore,
		TTL:            cfg.TTL,
		ComputeSetCost: cfg.ComputeSetCost,
		Logger:         cfg.Logger,
		Hooks:          cfg.Hooks,
		Disabled:       cfg.Disabled,
	})
}

// ClearRecords empties the records namespace. Images are kept.
func (c *Caches) ClearRecords(ctx context.Context) error {
	return c.CodeLists.Clear(ctx)
}

// removeRecords drops keys from the records namespace. Record memos share
// storage keys, so any of them can remove any record key.
func (c *Caches) removeRecords(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := c.CodeLists.Remove(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Caches) Close(ctx context.Context) error {
	for _, m := range []interface{ Close(context.Context) error }{c.Images, c.Codes, c.CodeLists, c.Users, c.UserLists} {
		_ = m.Close(ctx)
	}
	return errors.Join(c.gen.Close(ctx), c.provider.Close(ctx))
}

// Record keys. Prefixes differ per value type: memos in one namespace share
// the keyspace.
const (
	allCodesKey = "codes:all"
	allUsersKey = "users:all"
)

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func contentSearchKey(q string) string  { return "content-search:" + normalize(q) }
func usersByNameKey(part string) string  { return "users-by-name:" + normalize(part) }
func userByEmailKey(email string) string { return "user-by-email:" + normalize(email) }
func codeKey(id store.ID) string         { return "code:" + idString(id) }
func ownerCodesKey(id store.ID) string   { return "owner-codes:" + idString(id) }
func userKey(id store.ID) string         { return "user:" + idString(id) }

func idString(id store.ID) string { return strconv.FormatInt(int64(id), 10) }

// renderKey addresses an image by everything that determines its pixels.
func renderKey(p params) string {
	return util.HashKey("render", p.text,
		strconv.Itoa(p.width), strconv.Itoa(p.height), p.fg.String(), p.bg.String())
}

// cached is the read-through helper: a hit is returned as is, a miss is
// loaded and stored. The generation is taken before loading, so a mutation
// landing during the load keeps its result out of the cache. Cache faults
// are logged and never fail the call.
func cached[V any](ctx context.Context, log qrcache.Logger, m qrcache.Memo[V], key string, load func() (V, error)) (V, error) {
	v, ok, err := m.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed", qrcache.Fields{"ns": m.Namespace(), "key": key, "err": err})
	} else if ok {
		log.Debug("cache hit", qrcache.Fields{"ns": m.Namespace(), "key": key})
		return v, nil
	}

	g, gerr := m.Snapshot(ctx, key)
	v, err = load()
	if err != nil {
		var zero V
		return zero, err
	}
	if gerr != nil {
		log.Warn("cache fill skipped", qrcache.Fields{"ns": m.Namespace(), "key": key, "err": gerr})
		return v, nil
	}
	if err := m.PutWithGen(ctx, key, v, g); err != nil {
		log.Warn("cache write failed", qrcache.Fields{"ns": m.Namespace(), "key": key, "err": err})
	}
	return v, nil
}
