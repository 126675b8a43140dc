package actuator

import "strconv"

// PulseAudio/PipeWire first, then ALSA.
func volumeCommands(percent int) []Command {
	p := strconv.Itoa(percent) + "%"
	return []Command{
		{Name: "pactl", Args: []string{"set-sink-volume", "@DEFAULT_SINK@", p}},
		{Name: "amixer", Args: []string{"-q", "sset", "Master", p}},
	}
}

func brightnessCommands(percent int) []Command {
	return []Command{
		{Name: "brightnessctl", Args: []string{"--quiet", "set", strconv.Itoa(percent) + "%"}},
	}
}
