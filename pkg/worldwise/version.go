// Package worldwise holds build metadata for the worldwise module.
package worldwise

// Version is the release version of worldwise.
const Version = "0.1.0"

// ModulePath is the Go module path of worldwise.
const ModulePath = "github.com/mesh-intelligence/worldwise"

// Commit is the source revision, set at link time with -X.
var Commit = "unknown"
