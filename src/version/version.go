package version

import "fmt"

// Flag contains extra info about the version. It is helpul for tracking
// versions while developing. It should always by empty on the master branch.
const Flag = ""

var (
	// Version is the full version string
	Version = "0.1.0"

	// GitCommit is set with --ldflags "-X github.com/mosaicnetworks/stakechain/src/version.GitCommit=$(git rev-parse HEAD)"
	GitCommit string
)

func init() {
	if Flag != "" {
		Version += "-" + Flag
	}

	if len(GitCommit) >= 8 {
		Version += "-" + GitCommit[:8]
	}
}

// Info returns the version followed by the protocol description, as printed
// by the version command.
func Info() string {
	return fmt.Sprintf("stakechain %s (wire protocol %d)", Version, Protocol)
}

// Protocol is the version of the peer-to-peer message format. Nodes with
// different protocol versions cannot decode each other's messages.
const Protocol = 1
