package weather

import "testing"

func TestNilCycleIsFlat(t *testing.T) {
	var c *Cycle
	if got := c.Shift(500); got != 0 {
		t.Fatalf("nil cycle shift=%d", got)
	}
	if NewCycle(1, 0, 360) != nil {
		t.Fatal("zero amplitude should disable the cycle")
	}
}

func TestCycleShiftBoundedAndRepeatable(t *testing.T) {
	a := NewCycle(42, 12, 360)
	b := NewCycle(42, 12, 360)
	varied := false
	first := a.Shift(0)
	for day := 0; day < 2000; day += 7 {
		got := a.Shift(day)
		if got < -12 || got > 12 {
			t.Fatalf("day %d shift=%d out of range", day, got)
		}
		if got != b.Shift(day) {
			t.Fatalf("day %d differs between identical seeds", day)
		}
		if got != first {
			varied = true
		}
	}
	if !varied {
		t.Fatal("cycle never moved")
	}
}

func TestWithTargetShiftClamps(t *testing.T) {
	c := DefaultClimate()
	wet := c.WithTargetShift(50)
	if wet.SeasonRainfallTargets != [4]int{100, 90, 100, 80} {
		t.Fatalf("wet targets=%v", wet.SeasonRainfallTargets)
	}
	if c.SeasonRainfallTargets[0] != 65 {
		t.Fatal("receiver was modified")
	}
	dry := c.WithTargetShift(-40)
	if dry.SeasonRainfallTargets != [4]int{25, 0, 20, 0} {
		t.Fatalf("dry targets=%v", dry.SeasonRainfallTargets)
	}
}
