package buildinfo

import "time"

// Version is the application release version
const Version = "1.0.0"

// Set via -ldflags at build time
var (
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)
