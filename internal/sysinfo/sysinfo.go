// Package sysinfo gathers host information for the doctor command and the
// watch daemon's startup log line.
package sysinfo

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Collect returns a small host/runtime report as ordered key/value pairs.
func Collect() [][2]string {
	var report [][2]string
	add := func(k, v string) { report = append(report, [2]string{k, v}) }

	if hInfo, err := host.Info(); err == nil {
		add("Hostname", hInfo.Hostname)
		add("OS", fmt.Sprintf("%s (%s %s)", hInfo.OS, hInfo.Platform, hInfo.PlatformVersion))
		add("Kernel", hInfo.KernelVersion)
		add("Arch", hInfo.KernelArch)
	}

	if mInfo, err := mem.VirtualMemory(); err == nil {
		add("Total RAM", fmt.Sprintf("%d MB", mInfo.Total/1024/1024))
	}

	add("Go Version", runtime.Version())
	return report
}
