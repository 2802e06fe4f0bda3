package ui

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var cpuSensorKeys = []string{"cpu", "coretemp", "k10temp", "tdie", "tctl"}

// GetResourceStats fetches current system resource statistics
func GetResourceStats() ResourceStats {
	stats := ResourceStats{
		CPUTemp: -1, // Default to -1 (unavailable)
	}

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		stats.MemoryUsed = memInfo.Used
		stats.MemoryTotal = memInfo.Total
		stats.MemPercent = memInfo.UsedPercent
	}

	stats.CPUTemp = getCPUTemperature()
	return stats
}

// getCPUTemperature attempts to get CPU temperature.
// Sensor naming is platform-specific; -1 means unavailable.
func getCPUTemperature() float64 {
	temps, err := host.SensorsTemperatures()
	if err != nil && len(temps) == 0 {
		return -1
	}

	readings := make([]sensorReading, len(temps))
	for i, t := range temps {
		readings[i] = sensorReading{Key: t.SensorKey, Celsius: t.Temperature}
	}
	return pickTemperature(readings)
}

type sensorReading struct {
	Key     string
	Celsius float64
}

// pickTemperature prefers a CPU sensor and falls back to any plausible reading
func pickTemperature(readings []sensorReading) float64 {
	for _, r := range readings {
		if r.Celsius > 0 && isCPUSensor(r.Key) {
			return r.Celsius
		}
	}

	// Apple Silicon exposes no "cpu" key, any thermal sensor will do
	for _, r := range readings {
		if r.Celsius > 0 && r.Celsius < 120 {
			return r.Celsius
		}
	}
	return -1
}

func isCPUSensor(key string) bool {
	key = strings.ToLower(key)
	for _, sub := range cpuSensorKeys {
		if strings.Contains(key, sub) {
			return true
		}
	}
	return false
}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
