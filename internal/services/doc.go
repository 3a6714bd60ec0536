// Package services defines shared utilities consumed by the pipeline stages and
// the storage and minting adapters.
//
// Key responsibilities:
//   - Context helpers that stamp folder names, task states, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so every folder failure is
//     classified (missing media, upload, mint, ...) with an operator hint.
package services
