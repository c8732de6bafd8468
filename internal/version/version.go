package version

import (
	"fmt"
	"runtime"
)

// Build information. Populated at build-time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String renders the build information on one line for the CLI
func String() string {
	return fmt.Sprintf("finops-api %s (commit %s, built %s, %s)", Version, GitCommit, BuildDate, runtime.Version())
}
