package sounds

import "city-ambience/internal/clock"

// Placeholder is returned to clients when no manifest file is present.
const Placeholder = "virtual_sound.mp3"

var (
	DaySounds = []string{
		"city_day1.mp3",
		"city_day2.mp3",
		"city_day3.mp3",
		"city_day4.mp3",
		"city_day5.mp3",
		"city_day6.mp3",
		"city_day7.mp3",
		"city_day8.mp3",
	}
	NightSounds = []string{
		"city_night1.mp3",
		"city_night2.mp3",
	}
)

type Asset struct {
	FileName string       `json:"file_name"`
	Period   clock.Period `json:"period"`
}

// Manifest returns the file names for p.
func Manifest(p clock.Period) []string {
	if p == clock.Night {
		return NightSounds
	}
	return DaySounds
}
