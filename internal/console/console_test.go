package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/talgya/tribesim/internal/engine"
	"github.com/talgya/tribesim/internal/entropy"
)

func newTestConsole(t *testing.T) (*Console, *engine.Engine, *bytes.Buffer) {
	t.Helper()
	sim := engine.NewSimulation(engine.DefaultParams(), entropy.NewSeeded(11))
	eng := engine.NewEngine(sim)
	var out bytes.Buffer
	return New(eng, &out), eng, &out
}

func state(eng *engine.Engine) engine.State {
	var st engine.State
	eng.With(func(sim *engine.Simulation) { st = sim.State() })
	return st
}

func TestExecuteAdvancesTime(t *testing.T) {
	c, eng, out := newTestConsole(t)
	eng.With(func(sim *engine.Simulation) { sim.AddFood(40) })

	steps := []struct {
		line string
		day  int
	}{
		{line: "day", day: 1},
		{line: "day 4", day: 5},
		{line: "week", day: 12},
		{line: "month", day: 42},
	}
	for _, s := range steps {
		if _, err := c.Execute(s.line); err != nil {
			t.Fatalf("Execute(%q): %v", s.line, err)
		}
		if got := state(eng).Day; got != s.day {
			t.Fatalf("after %q day=%d want %d", s.line, got, s.day)
		}
	}

	if _, err := c.Execute("season"); err != nil {
		t.Fatalf("season: %v", err)
	}
	st := state(eng)
	if st.Day != 60 || st.Season != engine.SeasonFall || st.DayInSeason != 0 {
		t.Fatalf("season command ended on day %d season %d (day %d)", st.Day, st.Season, st.DayInSeason)
	}
	if !strings.Contains(out.String(), "===== DAY 60 | Fall (1st day) =====") {
		t.Fatalf("status header missing from output:\n%s", out.String())
	}
}

func TestExecuteYearIsFourSeasons(t *testing.T) {
	c, eng, _ := newTestConsole(t)
	eng.With(func(sim *engine.Simulation) { sim.AddFood(50) })
	if _, err := c.Execute("year"); err != nil {
		t.Fatalf("year: %v", err)
	}
	st := state(eng)
	if st.Humans > 0 && st.Day != 120 {
		t.Fatalf("year advanced to day %d", st.Day)
	}
}

func TestExecuteOverrides(t *testing.T) {
	c, eng, out := newTestConsole(t)
	var journaled []engine.Event
	c.OnOverride = func(events []engine.Event) { journaled = append(journaled, events...) }

	for _, line := range []string{"plague 3", "animals 500", "rain -5", "food", "farming 2", "knowledge"} {
		if _, err := c.Execute(line); err != nil {
			t.Fatalf("Execute(%q): %v", line, err)
		}
	}

	st := state(eng)
	if st.ActiveEvents[engine.DivinePlague] != 3 {
		t.Fatalf("plague remaining=%d", st.ActiveEvents[engine.DivinePlague])
	}
	if st.Animals != 200 || st.Rainfall != 0 {
		t.Fatalf("animals=%d rainfall=%d", st.Animals, st.Rainfall)
	}
	if st.FoodStorage != 20 || st.FarmingLevel != 2 || st.SurvivalKnowledge != 0.5 {
		t.Fatalf("food=%v farming=%d knowledge=%v", st.FoodStorage, st.FarmingLevel, st.SurvivalKnowledge)
	}
	if len(journaled) < 6 {
		t.Fatalf("journaled %d override events", len(journaled))
	}
	if !strings.Contains(out.String(), "INTERVENTION: A plague has been triggered for 3 days") {
		t.Fatalf("trigger not printed:\n%s", out.String())
	}
}

func TestExecuteDefaultDurations(t *testing.T) {
	c, eng, _ := newTestConsole(t)
	for _, line := range []string{"drought", "bless", "disease", "blight"} {
		if _, err := c.Execute(line); err != nil {
			t.Fatalf("Execute(%q): %v", line, err)
		}
	}
	st := state(eng)
	for _, k := range []engine.DivineEvent{engine.DivineDrought, engine.DivineBlessing, engine.DivineAnimalDisease, engine.DivinePlantBlight} {
		if st.ActiveEvents[k] != k.DefaultDuration() {
			t.Fatalf("%s remaining=%d want %d", k, st.ActiveEvents[k], k.DefaultDuration())
		}
	}
}

func TestExecuteCancel(t *testing.T) {
	c, eng, out := newTestConsole(t)
	if _, err := c.Execute("cancel"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(out.String(), "No active events to cancel.") {
		t.Fatalf("expected no-op message, got:\n%s", out.String())
	}

	c.Execute("plague")
	c.Execute("cancel")
	if state(eng).AnyEventActive() {
		t.Fatal("events still active after cancel")
	}
}

func TestExecuteQuitAndErrors(t *testing.T) {
	c, _, out := newTestConsole(t)

	quit, err := c.Execute("  ")
	if quit || err != nil {
		t.Fatalf("blank line quit=%v err=%v", quit, err)
	}
	if _, err := c.Execute("humans"); !errors.Is(err, ErrMissingValue) {
		t.Fatalf("humans without value err=%v", err)
	}
	quit, err = c.Execute("quit")
	if !quit || err != nil {
		t.Fatalf("quit=%v err=%v", quit, err)
	}
	if !strings.Contains(out.String(), "Simulation ended by user") {
		t.Fatalf("quit message missing:\n%s", out.String())
	}
}

func TestExecuteReportsCorrection(t *testing.T) {
	c, _, out := newTestConsole(t)
	if _, err := c.Execute("statsu"); err != nil {
		t.Fatalf("statsu: %v", err)
	}
	if !strings.Contains(out.String(), `(taking "statsu" as "status")`) {
		t.Fatalf("correction not reported:\n%s", out.String())
	}
}

func TestRunReadsUntilQuit(t *testing.T) {
	c, eng, out := newTestConsole(t)
	in := strings.NewReader("day 2\nbogus\nday 0\nquit\nday 5\n")
	if err := c.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := state(eng).Day; got != 2 {
		t.Fatalf("day=%d want 2; commands after quit must not run", got)
	}
	text := out.String()
	for _, want := range []string{"unknown command", "Please enter a positive number", "Type 'god_help'"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunStopsAtEndOfInput(t *testing.T) {
	c, _, _ := newTestConsole(t)
	if err := c.Run(context.Background(), strings.NewReader("status\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	c, eng, _ := newTestConsole(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, strings.NewReader("day 3\n")); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if state(eng).Day != 0 {
		t.Fatal("no command should run after cancellation")
	}
}

func TestExecuteRejectsHugeAdvance(t *testing.T) {
	c, eng, _ := newTestConsole(t)
	for _, line := range []string{"day 36501", "week 9223372036854775807", "month 1317624576693539402", "season 1217", "year 305"} {
		if _, err := c.Execute(line); !errors.Is(err, ErrTooFar) {
			t.Fatalf("Execute(%q) err=%v want ErrTooFar", line, err)
		}
	}
	if got := state(eng).Day; got != 0 {
		t.Fatalf("rejected commands advanced to day %d", got)
	}
}
