// SPDX-License-Identifier: Apache-2.0
package sysinfo

import "fmt"

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// Status grades how much headroom a resource has
type Status int

const (
	StatusUnknown Status = iota
	StatusGood
	StatusWarning
	StatusCritical
)

func (s Status) String() string {
	switch s {
	case StatusGood:
		return "good"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Requirements lists the minimum supported system
var Requirements = []string{
	"Minimum 4GB RAM",
	"At least 10GB free disk space",
	"64-bit operating system",
}

// FormatDisk renders a disk capacity, e.g. "200.00 GB free / 500.00 GB total"
func FormatDisk(c *Capacity) string {
	if c == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%.2f GB free / %.2f GB total", float64(c.Free)/gib, float64(c.Total)/gib)
}

// FormatMemory renders memory in GB, or MB when the total is under 1 GB
func FormatMemory(c *Capacity) string {
	if c == nil {
		return "Unknown"
	}
	if c.Total >= gib {
		return fmt.Sprintf("%.2f GB free / %.2f GB total", float64(c.Free)/gib, float64(c.Total)/gib)
	}
	return fmt.Sprintf("%.2f MB free / %.2f MB total", float64(c.Free)/mib, float64(c.Total)/mib)
}

// DiskStatus is critical under 10% free and a warning under 20%
func DiskStatus(c *Capacity) Status {
	return grade(c, 10, 20)
}

// MemoryStatus is critical under 15% free and a warning under 30%
func MemoryStatus(c *Capacity) Status {
	return grade(c, 15, 30)
}

func grade(c *Capacity, critical, warning float64) Status {
	if c == nil || c.Total == 0 {
		return StatusUnknown
	}
	pct := float64(c.Free) / float64(c.Total) * 100
	switch {
	case pct < critical:
		return StatusCritical
	case pct < warning:
		return StatusWarning
	default:
		return StatusGood
	}
}
