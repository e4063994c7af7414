package console

import (
	"errors"
	"testing"
)

func TestParseCommands(t *testing.T) {
	tests := []struct {
		in       string
		verb     Verb
		value    int
		hasValue bool
	}{
		{in: "day", verb: VerbDay},
		{in: "  DAY   12 ", verb: VerbDay, value: 12, hasValue: true},
		{in: "week 2", verb: VerbWeek, value: 2, hasValue: true},
		{in: "m", verb: VerbMonth},
		{in: "years 3", verb: VerbYear, value: 3, hasValue: true},
		{in: "plague 3", verb: VerbPlague, value: 3, hasValue: true},
		{in: "plant_blight", verb: VerbPlantBlight},
		{in: "animal disease 4", verb: VerbAnimalDisease, value: 4, hasValue: true},
		{in: "god help", verb: VerbGodHelp},
		{in: "humans 0", verb: VerbHumans, value: 0, hasValue: true},
		{in: "rain -20", verb: VerbRain, value: -20, hasValue: true},
		{in: "plant 50", verb: VerbPlants, value: 50, hasValue: true},
		{in: "exit", verb: VerbQuit},
		{in: "status now", verb: VerbStatus},
		{in: "flood 9", verb: VerbFlood},
	}
	for _, tc := range tests {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if cmd.Verb != tc.verb || cmd.Value != tc.value || cmd.HasValue != tc.hasValue {
			t.Fatalf("Parse(%q)=%+v want verb=%s value=%d has=%v", tc.in, cmd, tc.verb, tc.value, tc.hasValue)
		}
		if cmd.Corrected() {
			t.Fatalf("Parse(%q) should be an exact match", tc.in)
		}
	}
}

func TestParseCorrectsTypos(t *testing.T) {
	tests := []struct {
		in   string
		verb Verb
	}{
		{in: "plauge 2", verb: VerbPlague},
		{in: "drout", verb: VerbDrought},
		{in: "statsu", verb: VerbStatus},
		{in: "sumary", verb: VerbSummary},
		{in: "knowlege", verb: VerbKnowledge},
		{in: "dayz", verb: VerbDay},
	}
	for _, tc := range tests {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if cmd.Verb != tc.verb || !cmd.Corrected() {
			t.Fatalf("Parse(%q)=%+v want corrected %s", tc.in, cmd, tc.verb)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{in: "", want: ErrUnknownCommand},
		{in: "xyzzy", want: ErrUnknownCommand},
		{in: "zz", want: ErrUnknownCommand},
		{in: "day abc", want: ErrInvalidNumber},
		{in: "day 0", want: ErrNonPositive},
		{in: "plague -3", want: ErrNonPositive},
		{in: "food 0", want: ErrNonPositive},
		{in: "humans", want: ErrMissingValue},
		{in: "rain", want: ErrMissingValue},
		{in: "animals lots", want: ErrInvalidNumber},
	}
	for _, tc := range tests {
		_, err := Parse(tc.in)
		if !errors.Is(err, tc.want) {
			t.Fatalf("Parse(%q) err=%v want %v", tc.in, err, tc.want)
		}
	}
}

func TestLevenshteinLimit(t *testing.T) {
	for length, want := range map[int]int{3: 1, 4: 1, 5: 2, 8: 2, 9: 3, 14: 3} {
		if got := levenshteinLimit(length); got != want {
			t.Fatalf("levenshteinLimit(%d)=%d want %d", length, got, want)
		}
	}
}
