// Command zumi-cli is the command-line client for zumi-server.
//
// Usage:
//
//	zumi-cli shield --owner <address> --amount 1.5
//	zumi-cli session list --owner <address> -o json
//	zumi-cli --socket /run/zumi/zumi.sock sweep
//	zumi-cli shell
//
// Settings come from ~/.zumi/cli.yaml, ZUMI_ environment variables and
// global flags, in increasing precedence.
package main
