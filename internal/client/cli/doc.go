// Package cli provides the interactive Framez command-line client.
//
// It wires configuration, the local metadata database, the content and
// object stores (remote or in-memory), and the core services: the feed
// synchronizer, the post controller and the search engine. A REPL exposes
// them as commands; a background watcher pings the server to show whether
// the client is online.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
