// Package qrcache implements namespaced memoization caches for the QR
// generation service. A Memo maps string keys to values of one type and
// never returns an entry written before the last Clear of its namespace.
//
// Components:
//   - Provider: byte store with TTL (memory, Ristretto, BigCache, Redis).
//   - Codec[V]: (de)serializes V <-> []byte.
//   - GenStore: one epoch counter per namespace. Local (in-process) by default,
//     optional Redis implementation for multi-replica / restart persistence.
//
// Keys:
//
//	<ns>:<key>   - entries, framed with the epoch they were written under
//	epoch:<ns>   - namespace epoch, held in the GenStore
//
// Clear bumps epoch:<ns> and, when the provider implements provider.Purger,
// drops <ns>:* eagerly. Entries with an older epoch self-heal on read.
package qrcache
