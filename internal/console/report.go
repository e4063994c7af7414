package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tribesim/internal/engine"
	"github.com/talgya/tribesim/internal/triage"
)

// StatusReport writes the current ecosystem status.
func StatusReport(w io.Writer, sim *engine.Simulation) {
	st := sim.State()
	climate := sim.Params().Climate

	fmt.Fprintf(w, "\n===== DAY %s | %s (%s day) =====\n",
		humanize.Comma(int64(st.Day)), engine.SeasonName(st.Season), humanize.Ordinal(st.DayInSeason+1))
	fmt.Fprintf(w, "Rainfall: %d/100 (%s)\n", st.Rainfall, strings.ToUpper(climate.Condition(st.Rainfall)))
	fmt.Fprintf(w, "Humans: %d\n", st.Humans)
	fmt.Fprintf(w, "Animals: %d\n", st.Animals)
	fmt.Fprintf(w, "Plants: %d (includes %d protected plants)\n", st.Plants, st.PlantReserves)

	if st.AnyEventActive() {
		fmt.Fprintln(w, "\nACTIVE DIVINE EVENTS:")
		for _, k := range engine.DivineEvents() {
			if d := st.ActiveEvents[k]; d > 0 {
				fmt.Fprintf(w, "  - %s: %d days remaining\n", titleCase(k.Title()), d)
			}
		}
	}

	if st.AnimalConservationLevel > 0 {
		fmt.Fprintf(w, "Animal Conservation: Level %d (%d protected animals)\n", st.AnimalConservationLevel, st.AnimalReserves)
	}
	if st.PlantConservationLevel > 0 {
		fmt.Fprintf(w, "Plant Conservation: Level %d\n", st.PlantConservationLevel)
	}
	if st.FoodStorage > 0 {
		fmt.Fprintf(w, "Food Storage: %.1f/%d\n", st.FoodStorage, st.MaxFoodStorage)
	}
	fmt.Fprintf(w, "Survival Knowledge: %.2f\n", st.SurvivalKnowledge)
	if st.FarmingLevel > 0 {
		fmt.Fprintf(w, "Farming: Level %d (Efficiency %.1fx)\n", st.FarmingLevel, st.FarmingEfficiency)
	}
	fmt.Fprintf(w, "Tool Quality: %.1fx\n", st.ToolsQuality)

	if st.TotalMigrations > 0 {
		fmt.Fprintf(w, "Migration: %s humans have migrated to establish new settlements\n", humanize.Comma(int64(st.TotalMigrations)))
		if st.SisterSettlements > 0 {
			fmt.Fprintf(w, "Sister Settlements: %d established settlements in the region\n", st.SisterSettlements)
		}
	}

	for _, line := range conditionLines(st, sim.GrowthModifier()) {
		fmt.Fprintln(w, line)
	}

	if health := triage.Assess(sim.History(), triage.DefaultWindow); health.Level != triage.Healthy {
		fmt.Fprintf(w, "Outlook: %s (%s)\n", health.Level, strings.Join(health.Reasons, "; "))
	}
}

// conditionLines describes notable population and growth conditions.
func conditionLines(st engine.State, growth float64) []string {
	var lines []string
	switch {
	case growth > 1.5:
		lines = append(lines, "Plants are EXPLODING with growth!")
	case growth > 1.2:
		lines = append(lines, "Plants are thriving!")
	case growth < 0.5:
		lines = append(lines, "Plants are SEVERELY struggling to grow!")
	case growth < 0.8:
		lines = append(lines, "Plants are growing slowly.")
	}

	switch {
	case st.Humans == 0:
		lines = append(lines, "The human population has DIED OUT!")
	case st.Humans >= 50:
		lines = append(lines, "The human population is BOOMING!")
	}

	switch {
	case st.Animals == 0:
		lines = append(lines, "The animal population has gone EXTINCT!")
	case st.Animals < 10:
		lines = append(lines, "WARNING: Animal population is CRITICALLY ENDANGERED!")
	case st.Animals > 150:
		lines = append(lines, "The animal population is ABUNDANT!")
	}

	switch {
	case st.Plants < 30:
		lines = append(lines, "WARNING: Plant resources are CRITICALLY SCARCE!")
	case st.Plants > 400:
		lines = append(lines, "Plant life is OVERGROWING the region!")
	}
	return lines
}

// SummaryReport writes the run summary.
func SummaryReport(w io.Writer, s engine.Summary) {
	fmt.Fprintln(w, "\nPOPULATION SUMMARY:")
	fmt.Fprintf(w, "Humans: Started with %d, Now at %d\n", s.InitialHumans, s.Humans)
	fmt.Fprintf(w, "Animals: Started with %d, Now at %d\n", s.InitialAnimals, s.Animals)
	fmt.Fprintf(w, "Plants: Started with %d, Now at %d\n", s.InitialPlants, s.Plants)

	if s.TotalMigrations > 0 {
		fmt.Fprintf(w, "Total Migrations: %s humans have left to establish new communities\n", humanize.Comma(int64(s.TotalMigrations)))
		if s.SisterSettlements > 0 {
			fmt.Fprintf(w, "Sister Settlements: %d new settlements established in the region\n", s.SisterSettlements)
		}
	}

	if s.HumanRange == nil {
		return
	}
	fmt.Fprintln(w, "\nPOPULATION RANGES:")
	fmt.Fprintf(w, "Human population ranged from %d to %d\n", s.HumanRange.Min, s.HumanRange.Max)
	fmt.Fprintf(w, "Animal population ranged from %d to %d\n", s.AnimalRange.Min, s.AnimalRange.Max)
	fmt.Fprintf(w, "Plant population ranged from %d to %d\n", s.PlantRange.Min, s.PlantRange.Max)

	fmt.Fprintf(w, "\nSimulation has run for %s days (%s months, %s years)\n",
		humanize.Comma(int64(s.Day)), humanize.Comma(int64(s.Months)), humanize.Comma(int64(s.Years)))
	fmt.Fprintf(w, "Survival Knowledge Level: %.2f\n", s.SurvivalKnowledge)
	fmt.Fprintf(w, "Farming Level: %d\n", s.FarmingLevel)
	fmt.Fprintf(w, "Animal Conservation Level: %d\n", s.AnimalConservationLevel)
	fmt.Fprintf(w, "Plant Conservation Level: %d\n", s.PlantConservationLevel)
	fmt.Fprintf(w, "Tool Quality: %.1fx\n", s.ToolsQuality)
	fmt.Fprintf(w, "Food Storage Capacity: %d\n", s.MaxFoodStorage)
	fmt.Fprintf(w, "Theoretical Total Human Population (Current + Migrated): %s\n", humanize.Comma(int64(s.TheoreticalPopulation)))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
