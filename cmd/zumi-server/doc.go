// Command zumi-server runs the zumi session and proof lifecycle service.
//
// It serves the HTTP API and, when configured, a RESP endpoint over the
// same store and a local management socket.
//
// Usage:
//
//	zumi-server serve --config /etc/zumi/config.yaml
//	zumi-server hash-key
//	zumi-server version
//
// Configuration is read from the YAML file, then ZUMI_ environment
// variables (ZUMI_STORAGE__ENGINE=badger sets storage.engine).
package main
