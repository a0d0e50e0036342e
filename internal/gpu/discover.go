// Package gpu detects NVIDIA devices by shelling out to nvidia-smi. Detection
// is best-effort: hosts without the tool fall back to a single device so the
// panel stays usable on CPU-only development machines.
package gpu

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const queryTimeout = 5 * time.Second

// Device describes one physical GPU.
type Device struct {
	Index         int
	Name          string
	MemoryTotalMB int
	MemoryUsedMB  int
	MemoryFreeMB  int
}

// Count returns the number of detected devices, defaulting to 1 when
// detection fails.
func Count() int {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		return 1
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return 1
	}
	return len(lines)
}

// Devices returns per-device memory info, or an empty slice when detection
// fails.
func Devices() []Device {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=index,name,memory.total,memory.used,memory.free",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		return nil
	}
	return parseDeviceList(string(out))
}

// parseDeviceList parses nvidia-smi CSV output. Malformed lines are skipped.
func parseDeviceList(out string) []Device {
	var devices []Device
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, ",")
		if len(parts) < 5 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		index, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		total, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		used, err := strconv.Atoi(parts[3])
		if err != nil {
			continue
		}
		free, err := strconv.Atoi(parts[4])
		if err != nil {
			continue
		}
		devices = append(devices, Device{
			Index:         index,
			Name:          parts[1],
			MemoryTotalMB: total,
			MemoryUsedMB:  used,
			MemoryFreeMB:  free,
		})
	}
	return devices
}
