// Package connection is the zumi-cli HTTP client.
//
// It talks to zumi-server over TCP, or over the local management socket
// when one is configured. Error bodies are decoded into *APIError.
package connection
