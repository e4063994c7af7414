// Package console is the interactive command interpreter: it parses typed
// commands, drives the engine, and renders status and summary reports.
package console

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrMissingValue   = errors.New("missing value")
	ErrNonPositive    = errors.New("please enter a positive number")
	ErrTooFar         = errors.New("too far to simulate at once")
)

// Verb is a canonical command name.
type Verb string

const (
	VerbDay     Verb = "day"
	VerbWeek    Verb = "week"
	VerbMonth   Verb = "month"
	VerbSeason  Verb = "season"
	VerbYear    Verb = "year"
	VerbStatus  Verb = "status"
	VerbSummary Verb = "summary"
	VerbHelp    Verb = "help"
	VerbGodHelp Verb = "god_help"
	VerbQuit    Verb = "quit"

	VerbPlague        Verb = "plague"
	VerbDrought       Verb = "drought"
	VerbFlood         Verb = "flood"
	VerbBless         Verb = "bless"
	VerbAnimalDisease Verb = "animal_disease"
	VerbPlantBlight   Verb = "plant_blight"
	VerbHumans        Verb = "humans"
	VerbAnimals       Verb = "animals"
	VerbPlants        Verb = "plants"
	VerbRain          Verb = "rain"
	VerbFood          Verb = "food"
	VerbKnowledge     Verb = "knowledge"
	VerbFarming       Verb = "farming"
	VerbCancel        Verb = "cancel"
)

type commandDef struct {
	verb    Verb
	aliases []string
	// setter commands take any integer and require one.
	setter bool
	// noArg commands ignore trailing tokens.
	noArg bool
}

var commands = []commandDef{
	{verb: VerbDay, aliases: []string{"days", "d"}},
	{verb: VerbWeek, aliases: []string{"weeks", "w"}},
	{verb: VerbMonth, aliases: []string{"months", "m"}},
	{verb: VerbSeason, aliases: []string{"seasons"}},
	{verb: VerbYear, aliases: []string{"years", "y"}},
	{verb: VerbStatus, aliases: []string{"stat", "st"}, noArg: true},
	{verb: VerbSummary, aliases: []string{"report"}, noArg: true},
	{verb: VerbHelp, aliases: []string{"?", "h", "commands"}, noArg: true},
	{verb: VerbGodHelp, aliases: []string{"godhelp", "god"}, noArg: true},
	{verb: VerbQuit, aliases: []string{"exit", "q"}, noArg: true},

	{verb: VerbPlague, aliases: []string{"pestilence"}},
	{verb: VerbDrought},
	{verb: VerbFlood, noArg: true},
	{verb: VerbBless, aliases: []string{"blessing"}},
	{verb: VerbAnimalDisease, aliases: []string{"disease"}},
	{verb: VerbPlantBlight, aliases: []string{"blight"}},
	{verb: VerbHumans, aliases: []string{"human", "people"}, setter: true},
	{verb: VerbAnimals, aliases: []string{"animal"}, setter: true},
	{verb: VerbPlants, aliases: []string{"plant"}, setter: true},
	{verb: VerbRain, aliases: []string{"rainfall"}, setter: true},
	{verb: VerbFood},
	{verb: VerbKnowledge},
	{verb: VerbFarming, aliases: []string{"farm"}},
	{verb: VerbCancel, noArg: true},
}

var (
	byAlias  = map[string]commandDef{}
	aliasSet []string
)

func init() {
	for _, def := range commands {
		for _, a := range append([]string{string(def.verb)}, def.aliases...) {
			byAlias[a] = def
			aliasSet = append(aliasSet, a)
		}
	}
	sort.Strings(aliasSet)
}

// Command is one parsed line.
type Command struct {
	Verb     Verb
	Value    int
	HasValue bool
	// Typed is the verb as entered when it was matched by spelling
	// correction rather than exactly.
	Typed string
}

// Corrected reports whether the verb was matched through a typo.
func (c Command) Corrected() bool {
	return c.Typed != ""
}

// Parse turns a line such as "plague 3" into a Command.
func Parse(raw string) (Command, error) {
	tokens := tokenise(normaliseInput(raw))
	if len(tokens) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}

	def, consumed, typed, err := matchVerb(tokens)
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Verb: def.verb, Typed: typed}

	args := tokens[consumed:]
	if len(args) > 0 && !def.noArg {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %s", ErrInvalidNumber, args[0])
		}
		if n <= 0 && !def.setter {
			return Command{}, ErrNonPositive
		}
		cmd.Value, cmd.HasValue = n, true
	}

	if def.setter && !cmd.HasValue {
		what := "a population value"
		if def.verb == VerbRain {
			what = "a rainfall value (0-100)"
		}
		return Command{}, fmt.Errorf("%w: please specify %s", ErrMissingValue, what)
	}
	return cmd, nil
}

// matchVerb resolves the leading tokens to a command. Two-word forms such
// as "animal disease" are tried before single words, then spelling
// correction on the first word.
func matchVerb(tokens []string) (commandDef, int, string, error) {
	if len(tokens) > 1 {
		if def, ok := byAlias[tokens[0]+"_"+tokens[1]]; ok {
			return def, 2, "", nil
		}
	}
	if def, ok := byAlias[tokens[0]]; ok {
		return def, 1, "", nil
	}

	in := tokens[0]
	if len(in) < 3 {
		return commandDef{}, 0, "", fmt.Errorf("%w: %q", ErrUnknownCommand, in)
	}

	best, bestDist := "", -1
	var tied []string
	for _, alias := range aliasSet {
		if len(alias) < 3 {
			continue
		}
		dist := levenshtein.ComputeDistance(in, alias)
		if dist > levenshteinLimit(len(alias)) {
			continue
		}
		switch {
		case bestDist < 0 || dist < bestDist:
			best, bestDist, tied = alias, dist, nil
		case dist == bestDist && byAlias[alias].verb != byAlias[best].verb:
			tied = append(tied, alias)
		}
	}
	if bestDist < 0 {
		return commandDef{}, 0, "", fmt.Errorf("%w: %q", ErrUnknownCommand, in)
	}
	if len(tied) > 0 {
		return commandDef{}, 0, "", fmt.Errorf("%w: %q (did you mean %s or %s?)", ErrUnknownCommand, in, best, tied[0])
	}
	return byAlias[best], 1, in, nil
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// normaliseInput lowercases and collapses whitespace. Underscores and
// minus signs are kept for verbs like plant_blight and negative values.
func normaliseInput(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

func tokenise(normalised string) []string {
	if normalised == "" {
		return nil
	}
	return strings.Split(normalised, " ")
}
