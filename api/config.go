// Package api provides an HTTP API server for querying passports and
// resolving situational triggers against stored memories.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}
