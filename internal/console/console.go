package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/talgya/tribesim/internal/engine"
)

// Console runs typed commands against one engine.
type Console struct {
	eng *engine.Engine
	out io.Writer

	// OnOverride receives the events of every operator override, which
	// are not delivered through the engine's day callback.
	OnOverride func([]engine.Event)
}

// New returns a console writing to out.
func New(eng *engine.Engine, out io.Writer) *Console {
	return &Console{eng: eng, out: out}
}

// Run reads commands from in until quit, end of input, or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.println("Starting hunter-gatherer ecosystem simulation")
	c.printf("%s", helpText)
	c.eng.With(func(sim *engine.Simulation) { StatusReport(c.out, sim) })

	sc := bufio.NewScanner(in)
	for {
		c.printf("\nCommand: ")
		if !sc.Scan() {
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		quit, err := c.Execute(sc.Text())
		if err != nil {
			c.println(describeError(err))
			continue
		}
		if quit {
			return nil
		}
	}
}

// Execute runs one line. It reports true when the line asked to quit.
func (c *Console) Execute(line string) (bool, error) {
	if strings.TrimSpace(line) == "" {
		return false, nil
	}
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}
	if cmd.Corrected() {
		c.printf("(taking %q as %q)\n", cmd.Typed, cmd.Verb)
	}
	slog.Debug("console command", "verb", string(cmd.Verb), "value", cmd.Value, "has_value", cmd.HasValue)

	switch cmd.Verb {
	case VerbQuit:
		c.println("\nSimulation ended by user")
		return true, nil
	case VerbHelp:
		c.printf("%s", helpText)
	case VerbGodHelp:
		c.printf("%s", godHelpText)
	case VerbStatus:
		c.eng.With(func(sim *engine.Simulation) { StatusReport(c.out, sim) })
	case VerbSummary:
		c.eng.With(func(sim *engine.Simulation) { SummaryReport(c.out, sim.Summary()) })

	case VerbDay, VerbWeek, VerbMonth, VerbSeason, VerbYear:
		if err := c.advance(cmd); err != nil {
			return false, err
		}

	default:
		c.override(cmd)
	}
	return false, nil
}

// maxAdvanceDays bounds a single advance command.
const maxAdvanceDays = 36500

func (c *Console) advance(cmd Command) error {
	n := 1
	if cmd.HasValue {
		n = cmd.Value
	}

	var seasonLength int
	c.eng.With(func(sim *engine.Simulation) { seasonLength = sim.Params().SeasonLength })

	perUnit := 1
	switch cmd.Verb {
	case VerbWeek:
		perUnit = 7
	case VerbMonth, VerbSeason:
		perUnit = seasonLength
	case VerbYear:
		perUnit = 4 * seasonLength
	}
	if n > maxAdvanceDays/perUnit {
		return fmt.Errorf("%w: at most %d days per command", ErrTooFar, maxAdvanceDays)
	}

	var results []engine.DayResult
	switch cmd.Verb {
	case VerbDay:
		c.printf("Simulating %d day(s)...\n", n)
		results = c.eng.Advance(n)
	case VerbWeek:
		c.printf("Simulating %d week(s) (%d days)...\n", n, n*7)
		results = c.eng.Advance(n * 7)
	case VerbMonth:
		c.printf("Simulating %d month(s) (%d days)...\n", n, n*seasonLength)
		results = c.eng.Advance(n * seasonLength)
	case VerbSeason:
		c.printf("Simulating %d season(s)...\n", n)
		results = c.eng.AdvanceSeasons(n)
	case VerbYear:
		c.printf("Simulating %d year(s)...\n", n)
		results = c.eng.AdvanceSeasons(n * 4)
	}

	for _, r := range results {
		c.printEvents(r.Events)
	}

	c.eng.With(func(sim *engine.Simulation) {
		if sim.Extinct() {
			c.println("\nSimulation ended: Human population extinct")
		}
		StatusReport(c.out, sim)
	})
	return nil
}

func (c *Console) override(cmd Command) {
	var events []engine.Event
	c.eng.With(func(sim *engine.Simulation) {
		if kind, ok := divineVerb(cmd.Verb); ok {
			duration := kind.DefaultDuration()
			if cmd.HasValue {
				duration = cmd.Value
			}
			events = sim.TriggerEvent(kind, duration)
			return
		}

		switch cmd.Verb {
		case VerbFlood:
			events = sim.TriggerFlood()
		case VerbHumans:
			events = sim.SetPopulation(engine.SpeciesHumans, cmd.Value)
		case VerbAnimals:
			events = sim.SetPopulation(engine.SpeciesAnimals, cmd.Value)
		case VerbPlants:
			events = sim.SetPopulation(engine.SpeciesPlants, cmd.Value)
		case VerbRain:
			events = sim.SetRainfall(cmd.Value)
		case VerbFood:
			events = sim.AddFood(float64(valueOr(cmd, 10)))
		case VerbKnowledge:
			amount := 0.5
			if cmd.HasValue {
				amount = float64(cmd.Value)
			}
			events = sim.BoostKnowledge(amount)
		case VerbFarming:
			events = sim.BoostFarming(valueOr(cmd, 1))
		case VerbCancel:
			st := sim.State()
			if !st.AnyEventActive() {
				return
			}
			events = sim.CancelAllEvents()
		}
	})

	if cmd.Verb == VerbCancel && len(events) == 0 {
		c.println("No active events to cancel.")
		return
	}
	c.printEvents(events)
	if c.OnOverride != nil {
		c.OnOverride(events)
	}
}

func divineVerb(v Verb) (engine.DivineEvent, bool) {
	switch v {
	case VerbPlague:
		return engine.DivinePlague, true
	case VerbDrought:
		return engine.DivineDrought, true
	case VerbBless:
		return engine.DivineBlessing, true
	case VerbAnimalDisease:
		return engine.DivineAnimalDisease, true
	case VerbPlantBlight:
		return engine.DivinePlantBlight, true
	}
	return 0, false
}

func valueOr(cmd Command, def int) int {
	if cmd.HasValue {
		return cmd.Value
	}
	return def
}

func (c *Console) printEvents(events []engine.Event) {
	for _, e := range events {
		c.println(FormatEvent(e))
	}
}

// FormatEvent renders one event as a console line.
func FormatEvent(e engine.Event) string {
	if e.Kind == "season_changed" {
		return fmt.Sprintf("\n=== %s ===", strings.ToUpper(e.Description))
	}
	return fmt.Sprintf("%s: %s", strings.ToUpper(e.Category), e.Description)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, ErrNonPositive):
		return "Please enter a positive number"
	case errors.Is(err, ErrUnknownCommand):
		return fmt.Sprintf("%v. Type 'help' for commands.", err)
	default:
		return err.Error()
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

const helpText = `
AVAILABLE COMMANDS:
  SIMULATION COMMANDS:
  day [n]      - Simulate n days (default: 1)
  week [n]     - Simulate n weeks (default: 1)
  month [n]    - Simulate n months (default: 1)
  season [n]   - Simulate n seasons (default: 1)
  year [n]     - Simulate n years (default: 1)
  status       - Show current ecosystem status
  summary      - Show simulation summary
  help         - Show available commands
  quit         - Exit simulation

  Type 'god_help' to see god mode commands
`

const godHelpText = `
  GOD MODE COMMANDS:
  plague [n]   - Trigger a plague for n days (default: 5)
  drought [n]  - Trigger a drought for n days (default: 10)
  flood        - Trigger an immediate flood
  bless [n]    - Grant divine blessing for n days (default: 7)
  animal_disease [n] - Trigger animal disease for n days (default: 7)
  plant_blight [n]   - Trigger plant disease for n days (default: 8)
  humans [n]   - Set human population to n
  animals [n]  - Set animal population to n
  plants [n]   - Set plant population to n
  rain [n]     - Set rainfall to n (0-100)
  food [n]     - Add n food to storage (default: 10)
  knowledge [n]- Boost knowledge by n amount (default: 0.5)
  farming [n]  - Boost farming by n levels (default: 1)
  cancel       - Cancel all active divine events
`
