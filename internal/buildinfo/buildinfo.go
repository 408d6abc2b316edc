package buildinfo

import "time"

// Set via -ldflags "-X github.com/xelth-com/eckbiz/internal/buildinfo.Version=..."
var (
	Version    = "dev"
	BuildTime  string
	CommitHash string
)

var started = time.Now().UTC()

// Info is the build metadata reported by the health endpoint
type Info struct {
	Version    string `json:"version"`
	BuildTime  string `json:"buildTime,omitempty"`
	CommitHash string `json:"commitHash,omitempty"`
	StartTime  string `json:"startTime"`
	Uptime     string `json:"uptime"`
}

// Current returns the build metadata with uptime measured against now.
func Current(now time.Time) Info {
	return Info{
		Version:    Version,
		BuildTime:  BuildTime,
		CommitHash: CommitHash,
		StartTime:  started.Format(time.RFC3339),
		Uptime:     now.Sub(started).Truncate(time.Second).String(),
	}
}
