// Package version holds the build version stamped in via -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X codemap/internal/shared/version.Version=v1.2.3"
var Version = "dev"
