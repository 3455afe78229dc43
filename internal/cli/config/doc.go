// Package config holds zumi-cli defaults read from ~/.zumi/cli.yaml.
//
// Flags and ZUMI_* environment variables override every field.
package config
