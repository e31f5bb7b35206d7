package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelfetch/internal/config"
)

const versionProbeTimeout = 5 * time.Second

// Requirement defines an external binary reelfetch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionFlag, when set, is passed to the binary to report its version.
	VersionFlag string
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSameFilesystem reports whether two directories share a device. Cache
// stores rename scratch files into place and treat a cross-device rename as
// a storage failure, so a mismatch means nothing is ever cached.
func CheckSameFilesystem(name, a, b string) Result {
	var sa, sb unix.Stat_t
	if err := unix.Stat(a, &sa); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat %s: %v", a, err)}
	}
	if err := unix.Stat(b, &sb); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat %s: %v", b, err)}
	}
	if sa.Dev != sb.Dev {
		return Result{Name: name, Detail: "different filesystems; cache stores will fail; nothing will be cached"}
	}
	return Result{Name: name, Passed: true, Detail: "same filesystem"}
}

// CheckFileReadable verifies that a regular file exists and can be read.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates the binaries the downloaders shell out to. Both
// the daemon and "config validate" use it so the requirement list lives in
// one place.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []Result {
	requirements := []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YouTube.Binary,
			Description: "Required for YouTube downloads",
			VersionFlag: "--version",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Used by yt-dlp to merge separate video and audio streams",
			Optional:    true,
		},
	}
	return CheckBinaries(ctx, requirements)
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Result {
	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		result := Result{Name: req.Name, Optional: req.Optional}
		switch {
		case cmd == "":
			result.Detail = "command not configured"
		default:
			path, err := exec.LookPath(cmd)
			if err != nil {
				result.Detail = fmt.Sprintf("binary %q not found (%s)", cmd, strings.TrimSpace(req.Description))
				break
			}
			result.Passed = true
			result.Detail = path
			if req.VersionFlag != "" {
				if version := probeVersion(ctx, path, req.VersionFlag); version != "" {
					result.Detail = fmt.Sprintf("%s (%s)", path, version)
				}
			}
		}
		results = append(results, result)
	}
	return results
}

// probeVersion returns the first line the binary prints for flag, or "" when
// it cannot be run.
func probeVersion(ctx context.Context, path, flag string) string {
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	output, err := exec.CommandContext(probeCtx, path, flag).Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line)
}
