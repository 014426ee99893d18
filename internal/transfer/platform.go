package transfer

import (
	"os"
	"runtime"
	"strings"
	"syscall"

	"github.com/quipvault/quipvault/internal/models"
)

// availableSpace reports the free bytes on the filesystem holding dir. It is a
// package variable so tests can simulate storage exhaustion.
var availableSpace = func(dir string) (int64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(dir, &st); err != nil {
		return 0, err
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}

// currentDeviceInfo describes the exporting device. The OS version is best-effort:
// the os-release pretty name where available, empty otherwise.
var currentDeviceInfo = func() *models.DeviceInfo {
	return &models.DeviceInfo{
		Platform:  runtime.GOOS,
		OSVersion: osReleaseName(),
	}
}

// osReleaseName reads PRETTY_NAME from /etc/os-release.
func osReleaseName() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(v, `"`)
		}
	}
	return ""
}
