package system

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// fileLimit is the soft RLIMIT_NOFILE we ask for. Large directories and PDF
// storyboards are read and exported concurrently.
const fileLimit = 2048

// InitResourceLimits raises the open-file soft limit up to fileLimit, capped at
// the hard limit. Failures are logged and otherwise ignored.
func InitResourceLimits(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not read open file limit", "error", err)
		return
	}
	if rLimit.Cur >= fileLimit {
		return
	}

	rLimit.Cur = fileLimit
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not raise open file limit", "error", err)
		return
	}
	logger.Debug("open file limit raised", "limit", rLimit.Cur)
}

// DefaultWorkers returns the number of logical CPUs, used when decode.workers or
// export.workers is left at 0.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	return n
}

// Workers resolves a configured worker count: positive values are used as-is,
// anything else falls back to DefaultWorkers.
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	return DefaultWorkers()
}

// FindLatest returns the most recently modified regular file in dir whose
// extension is one of exts (case-insensitive).
func FindLatest(dir string, exts ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !slices.Contains(exts, ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, e.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}
