// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Maps loaded with LoadMap (command-line flags)
//  2. Environment variables (ZUMI_ prefix)
//  3. The YAML configuration file
//  4. Values already present in the target struct
//
// Watcher notifies callbacks when a watched file changes on disk.
package confloader
