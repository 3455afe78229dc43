// Package tlsroots manages TLS material for zumi.
//
//   - roots.go: trusted roots for outbound HTTPS (chain RPC), system pool plus an optional CA bundle
//   - watcher.go: serving certificate hot-reload via fsnotify
package tlsroots
