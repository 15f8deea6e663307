package qrcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The memo calls them on hot paths.
type Hooks interface {
	// An entry was deleted by the memo on read.
	// reason ∈ {"corrupt", "stale_epoch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors (snapshot or bump) for a namespace epoch.
	GenSnapshotError(namespace string, err error)
	GenBumpError(namespace string, err error)

	// Clear could neither bump the epoch nor purge (likely backend outage).
	ClearOutage(namespace string, bumpErr, purgeErr error)

	// Clear succeeded; epoch is the new namespace epoch (0 if only purged).
	Cleared(namespace string, epoch uint64)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)          {}
func (NopHooks) ProviderSetRejected(string)       {}
func (NopHooks) GenSnapshotError(string, error)   {}
func (NopHooks) GenBumpError(string, error)       {}
func (NopHooks) ClearOutage(string, error, error) {}
func (NopHooks) Cleared(string, uint64)           {}
