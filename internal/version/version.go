// Package version holds build-time identity, overwritten via -ldflags the
// same way the teacher's pkg/version does.
package version

// Current is the application version, overwritten at build time.
var Current = "dev"

// AppName is the binary's display name.
const AppName = "wastescan"
