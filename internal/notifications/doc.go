// Package notifications delivers pipeline events via ntfy.
//
// The ntfy implementation posts to the topic URL from config.toml and degrades
// to a no-op when no topic is configured. Minted and failure notices can be
// switched off independently; the test notice is always sent.
package notifications
