//go:build !linux && !darwin && !windows

package actuator

func volumeCommands(percent int) []Command     { return nil }
func brightnessCommands(percent int) []Command { return nil }
