// Package mintlog persists the Minted NFT Log and the failure journal in
// SQLite.
//
// The minted log is append-only: rows are never updated or deleted, and row
// order (by id) is completion order. The failure journal records every folder
// that ended in the failed state, with whatever URIs had been produced before
// the failure, so operators can see what already reached storage.
//
// Schema changes bump schemaVersion in schema.go; an older database must be
// removed before the daemon will start against it.
package mintlog
