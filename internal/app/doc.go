// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: loading
// manifests and layouts, building graphs, driving frames, persisting records
// and forwarding events. It is decoupled from any specific entrypoint like a
// CLI or server.
package app
