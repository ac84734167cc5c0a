// Package deps reports availability of the optional external binaries
// clipforge can take advantage of when they are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary clipforge can use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// FFprobeCommand is the binary used to probe upload media.
const FFprobeCommand = "ffprobe"

// Defaults lists the binaries clipforge looks for. All are optional; the
// pipeline degrades gracefully when they are missing.
func Defaults() []Requirement {
	return []Requirement{
		{
			Name:        "FFprobe",
			Command:     FFprobeCommand,
			Description: "Probes durations for uploaded video files",
			Optional:    true,
		},
	}
}

// FFprobe reports whether the ffprobe binary is resolvable on PATH.
func FFprobe() Status {
	return CheckBinaries(Defaults()[:1])[0]
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if resolved, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		} else {
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}
