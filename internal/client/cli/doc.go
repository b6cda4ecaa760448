// Package cli provides the interactive NebulaRun command-line client.
//
// It wires configuration, the offline database, backend DAOs, and an
// interactive REPL that supports online/offline operation. Typical flow:
// restore or prompt for a session, start a background connectivity watcher,
// and execute user commands.
//
// Key features:
//   - Login / Register / Logout with automatic session restore
//   - Record finished runs (challenge rewards included)
//   - Show stats, missions, inventory, and the cosmetics shop
//   - Buy and equip cosmetics, online or offline
//   - Sync local state with the backend
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and Root for details.
package cli
