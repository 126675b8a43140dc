package actuator

import (
	"fmt"
	"strconv"
)

func volumeCommands(percent int) []Command {
	return []Command{
		{Name: "osascript", Args: []string{"-e", "set volume output volume " + strconv.Itoa(percent)}},
	}
}

// brightness is the Homebrew "brightness" tool; it takes a 0-1 fraction.
func brightnessCommands(percent int) []Command {
	return []Command{
		{Name: "brightness", Args: []string{fmt.Sprintf("%.2f", float64(percent)/100)}},
	}
}
