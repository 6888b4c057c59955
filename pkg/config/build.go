package config

import (
	"os"
	"strings"
	"time"
)

const (
	projectVersionFile   = "PROJECT_VERSION"
	projectBuildDateFile = "PROJECT_BUILD_DATE"
	projectCommitFile    = "PROJECT_COMMIT_HASH"
)

// BuildConfig identifies the running build; it is surfaced on the status
// RPC. The files are written by CI next to the binary.
type BuildConfig struct {
	GitTag    string
	GitHash   string
	BuildDate uint64
}

func ReadBuildVersion() (*BuildConfig, error) {
	version, err := readTrimmed(projectVersionFile)
	if err != nil {
		return nil, err
	}

	commit, err := readTrimmed(projectCommitFile)
	if err != nil {
		return nil, err
	}

	buildDateStr, err := readTrimmed(projectBuildDateFile)
	if err != nil {
		return nil, err
	}

	buildDate, err := time.Parse(time.RFC3339, buildDateStr)
	if err != nil {
		return nil, err
	}

	return &BuildConfig{
		GitTag:    version,
		GitHash:   commit,
		BuildDate: uint64(buildDate.Unix()),
	}, nil
}

func readTrimmed(filepath string) (string, error) {
	b, err := os.ReadFile(filepath)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}
