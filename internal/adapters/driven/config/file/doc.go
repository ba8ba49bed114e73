// Package file provides the TOML configuration store, a watcher that
// reloads it when the file changes on disk, and .env loading for
// SERCHA_* overrides.
package file
