// Package sysinfo reports host memory so pool construction can warn before
// allocating a satisfaction matrix the machine cannot hold.
package sysinfo

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/selor/errors"
)

// Stats is a snapshot of system memory in megabytes.
type Stats struct {
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	AvailableMB float64 `json:"available_mb"`
	Percent     float64 `json:"percent"`
}

// Memory returns current system memory usage.
func Memory() (Stats, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return Stats{}, errors.Wrap(err, "failed to get memory stats")
	}
	return fromBytes(v.Total, v.Available), nil
}

func fromBytes(total, available uint64) Stats {
	if total == 0 {
		return Stats{}
	}
	s := Stats{
		TotalMB:     float64(total) / 1024 / 1024,
		AvailableMB: float64(available) / 1024 / 1024,
	}
	s.UsedMB = s.TotalMB - s.AvailableMB
	s.Percent = s.UsedMB / s.TotalMB * 100
	return s
}

// MatrixBytes estimates the footprint of a rows × atoms satisfaction matrix
// (one byte per cell).
func MatrixBytes(rows, atoms int) uint64 {
	return uint64(rows) * uint64(atoms)
}

// CheckMatrixMemory returns a warning when a rows × atoms satisfaction matrix
// would take more than half of the available memory, or "" if it fits or the
// stats cannot be read.
func CheckMatrixMemory(rows, atoms int) string {
	stats, err := Memory()
	if err != nil {
		return ""
	}
	return checkMatrix(stats, rows, atoms)
}

func checkMatrix(stats Stats, rows, atoms int) string {
	if stats.AvailableMB <= 0 {
		return ""
	}
	needMB := float64(MatrixBytes(rows, atoms)) / 1024 / 1024
	if needMB <= stats.AvailableMB/2 {
		return ""
	}
	return fmt.Sprintf(
		"Satisfaction matrix (%d rows × %d atoms, %.1fMB) exceeds half of available memory (%.1f/%.1fMB). "+
			"Consider lowering pool.num_atoms.",
		rows, atoms, needMB, stats.AvailableMB, stats.TotalMB)
}
