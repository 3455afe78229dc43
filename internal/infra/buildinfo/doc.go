// Package buildinfo exposes build information for zumi binaries.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/zumicash/zumi-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not injected, Commit and BuildTime fall back to the VCS
// stamp the Go toolchain embeds in module builds.
package buildinfo
