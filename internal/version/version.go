// Package version carries the parchment build metadata stamped at release
// time, logged once at startup so deployments are distinguishable.
package version

//nolint:revive // Overridden via -ldflags "-X ..." at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
