// Package collab is an embedded collaborative CRDT data store core: each
// business object — a document, a folder hierarchy, a database, or a
// database row — is kept as an independently versioned CRDT document
// built on top of the runtime in internal/crdt.
//
// # Objects
//
// An [Object] owns one CRDT document exclusively: a root map, a set of
// plugins notified on every applied update, and an undo manager scoped
// to the typed root. Construct one with [New], or decode a previously
// encoded one with [Open]. Typed bodies (document, folder, database,
// row) are built on top of an Object's root map by the document,
// folder and database packages.
//
// # Transactions and origins
//
// Every local mutation passes through [Object.Transact], which stamps
// the write with the Object's own [Origin] so plugins and downstream
// observers can distinguish local edits from ones applied through
// [Object.ApplyUpdate].
//
// # Encoding
//
// [Object.EncodeFull] produces an [EncodedCollab] — a doc state plus the
// state vector it was taken against — the only supported on-wire
// serialization of a full Object, and the input [Open] expects back.
package collab
