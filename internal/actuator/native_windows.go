package actuator

import (
	"fmt"
	"strconv"
)

// nircmd takes the master volume on a 0-65535 scale.
func volumeCommands(percent int) []Command {
	return []Command{
		{Name: "nircmd", Args: []string{"setsysvolume", strconv.Itoa(percent * 65535 / 100)}},
	}
}

func brightnessCommands(percent int) []Command {
	script := fmt.Sprintf(
		"(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,%d)", percent)
	return []Command{
		{Name: "powershell", Args: []string{"-NoProfile", "-NonInteractive", "-Command", script}},
	}
}
