// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

type ProcessStats struct {
	PID        int       `json:"pid"`
	StartTime  time.Time `json:"startTime"`
	NumThreads int32     `json:"numThreads"`
	MemoryRSS  uint64    `json:"memoryRSS"`
	CPUPercent float64   `json:"cpuPercent"`
}

// processStats returns resource usage of the current process.
func processStats() (*ProcessStats, error) {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("could not open process %d: %w", pid, err)
	}
	msecs, err := p.CreateTime()
	if err != nil {
		return nil, fmt.Errorf("could not get process create time: %w", err)
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("could not get process memory info: %w", err)
	}
	nthreads, err := p.NumThreads()
	if err != nil {
		return nil, fmt.Errorf("could not get process thread count: %w", err)
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return nil, fmt.Errorf("could not get process cpu usage: %w", err)
	}
	v := &ProcessStats{
		PID:        pid,
		StartTime:  time.UnixMilli(msecs),
		NumThreads: nthreads,
		MemoryRSS:  mem.RSS,
		CPUPercent: cpu,
	}
	return v, nil
}
