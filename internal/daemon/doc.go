// Package daemon coordinates the long-running mintwatch process.
//
// It wires configuration, the mint log, the pipeline controller and the inbox
// watcher into a single lifecycle with flock-based locking to prevent multiple
// instances. On start the completion ledger is rebuilt from marker files
// before the watcher replays the folders already in the inbox, so restarts
// never reprocess a minted folder.
//
// The watcher can be stopped and restarted at runtime. Stopping it clears
// pending debounce timers but lets in-flight folders finish; Close waits for
// them before releasing the store.
package daemon
