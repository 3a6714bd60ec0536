// Package mint turns a validated metadata document and its uploaded URI into
// an on-chain asset.
//
// The Orchestrator is the single normalization boundary for the optional
// metadata fields: royalty basis points are clamped, creators with malformed
// addresses are dropped, and text fields are NFC-normalized. Submission goes
// through a Minter; HTTPMinter talks to a minting service over HTTP.
//
// Mint failures are never retried here. A submission that timed out may still
// have landed, so resubmitting could create a duplicate asset.
package mint
