package engine

import (
	"testing"

	"github.com/talgya/tribesim/internal/entropy"
)

func countKind(events []Event, kind string) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestEventDurationCountsDown(t *testing.T) {
	for _, k := range DivineEvents() {
		s := newTestSim(7)
		s.TriggerEvent(k, 4)

		for day := 1; day <= 4; day++ {
			_, events := s.AdvanceDay()
			want := 4 - day
			if got := s.State().ActiveEvents[k]; got != want {
				t.Fatalf("%s day %d: duration=%d want %d", k, day, got, want)
			}
			ended := countKind(events, "event_ended")
			if day < 4 && ended != 0 {
				t.Fatalf("%s ended early on day %d", k, day)
			}
			if day == 4 && ended != 1 {
				t.Fatalf("%s should end exactly on day 4, got %d end events", k, ended)
			}
		}

		s.AdvanceDay()
		if s.State().EventActive(k) {
			t.Fatalf("%s still active after its duration", k)
		}
	}
}

func TestPlagueKillsEachActiveDayOnly(t *testing.T) {
	s := newTestSim(13)
	s.TriggerEvent(DivinePlague, 5)

	prev := s.State().Humans
	for day := 1; day <= 5; day++ {
		_, events := s.AdvanceDay()
		humans := s.State().Humans
		if prev > 0 && humans >= prev {
			t.Fatalf("day %d: humans did not decrease (%d -> %d)", day, prev, humans)
		}
		if prev > 0 && countKind(events, "plague_deaths") != 1 {
			t.Fatalf("day %d: expected one plague_deaths event", day)
		}
		prev = humans
	}

	if s.State().EventActive(DivinePlague) {
		t.Fatal("plague should be inactive from day 6")
	}
	for day := 6; day <= 30; day++ {
		_, events := s.AdvanceDay()
		if n := countKind(events, "plague_deaths"); n != 0 {
			t.Fatalf("day %d: %d plague deaths after the plague ended", day, n)
		}
	}
}

func TestTriggerOverwritesDuration(t *testing.T) {
	s := newTestSim(1)
	s.TriggerEvent(DivineAnimalDisease, 9)
	s.AdvanceDay()
	s.TriggerEvent(DivineAnimalDisease, 3)

	if got := s.State().ActiveEvents[DivineAnimalDisease]; got != 3 {
		t.Fatalf("retrigger should reset duration to 3, got %d", got)
	}
}

func TestDroughtShockLowersRainfall(t *testing.T) {
	// IntRange(20, 40) with draw 0 yields 20.
	s := NewSimulation(DefaultParams(), entropy.NewSequence(0))
	s.TriggerEvent(DivineDrought, 10)
	if got := s.State().Rainfall; got != 30 {
		t.Fatalf("rainfall after drought shock=%d want 30", got)
	}

	s.SetRainfall(12)
	s.TriggerEvent(DivineDrought, 10)
	if got := s.State().Rainfall; got != 5 {
		t.Fatalf("drought shock must floor rainfall at 5, got %d", got)
	}
}

func TestBlessingShockAddsRainAndFood(t *testing.T) {
	// Rain +10 and food +5 with draws of 0.
	s := NewSimulation(DefaultParams(), entropy.NewSequence(0, 0))
	events := s.TriggerEvent(DivineBlessing, 7)

	st := s.State()
	if st.Rainfall != 60 {
		t.Fatalf("rainfall=%d want 60", st.Rainfall)
	}
	if st.FoodStorage != 15 {
		t.Fatalf("food storage=%.1f want 15", st.FoodStorage)
	}
	if countKind(events, "event_triggered") != 1 || countKind(events, "blessing_shock") != 1 {
		t.Fatalf("unexpected events: %+v", events)
	}

	s.SetRainfall(65)
	s.TriggerEvent(DivineBlessing, 7)
	if got := s.State().Rainfall; got != 70 {
		t.Fatalf("blessing shock caps rainfall at 70, got %d", got)
	}
}

func TestBlightShockRespectsReserves(t *testing.T) {
	s := NewSimulation(DefaultParams(), entropy.NewSequence(0.5, 0.0))
	s.BoostFarming(2)
	before := s.State()

	s.TriggerEvent(DivinePlantBlight, 8)
	after := s.State()

	loss := before.Plants - after.Plants
	if loss < 25 || loss > 50 {
		t.Fatalf("blight loss=%d outside the expected 30-50%% band", loss)
	}
	if after.Plants < after.PlantReserves {
		t.Fatalf("blight pushed plants below reserves: %d < %d", after.Plants, after.PlantReserves)
	}
	if after.FarmingEfficiency >= before.FarmingEfficiency || after.FarmingEfficiency < 0.5 {
		t.Fatalf("farming efficiency %v should dip below %v but stay >= 0.5", after.FarmingEfficiency, before.FarmingEfficiency)
	}
}

func TestBlightExpiryRestoresFarming(t *testing.T) {
	s := newTestSim(21)
	s.BoostFarming(3)
	s.state.FarmingEfficiency = 0.6

	s.TriggerEvent(DivinePlantBlight, 2)
	s.AdvanceDay()
	s.AdvanceDay()

	if got, want := s.State().FarmingEfficiency, farmingEfficiency(s.State().FarmingLevel); got != want {
		t.Fatalf("farming efficiency=%v want %v after blight ended", got, want)
	}
}

func TestBlightOnReserveOnlyPlantsDoesNothing(t *testing.T) {
	s := NewSimulation(DefaultParams(), entropy.NewSequence(0.9))
	s.SetPopulation(SpeciesPlants, 20)

	events := s.TriggerEvent(DivinePlantBlight, 8)
	if got := s.State().Plants; got != 20 {
		t.Fatalf("plants=%d want 20", got)
	}
	if countKind(events, "blight_damage") != 0 {
		t.Fatal("no damage expected when only reserves remain")
	}
}

func TestParseDivineEvent(t *testing.T) {
	tests := []struct {
		in   string
		want DivineEvent
		ok   bool
	}{
		{in: "plague", want: DivinePlague, ok: true},
		{in: "bless", want: DivineBlessing, ok: true},
		{in: " Plant_Blight ", want: DivinePlantBlight, ok: true},
		{in: "animal_disease", want: DivineAnimalDisease, ok: true},
		{in: "locusts", ok: false},
	}
	for _, tc := range tests {
		got, ok := ParseDivineEvent(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ParseDivineEvent(%q)=(%v,%v) want (%v,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
