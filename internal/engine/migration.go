package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tribesim/internal/entropy"
)

// Sister-settlement interaction kinds, in weight order.
const (
	sisterTrade = iota
	sisterKnowledge
	sisterReturn
	sisterFoodGift
	sisterHunt
)

var sisterWeights = []float64{0.4, 0.3, 0.15, 0.1, 0.05}

// triggerMigration sends humans above the soft cap away. Groups of five or
// more found a sister settlement.
func (s *Simulation) triggerMigration() {
	st := &s.state
	p := s.params
	if st.Humans <= p.HumanSoftCap {
		return
	}

	over := st.Humans - p.HumanSoftCap
	pressure := float64(over) / float64(p.MaxHumans-p.HumanSoftCap)
	chance := 0.5 + pressure*0.5

	if s.rng.Float() >= chance {
		if st.Humans >= 95 {
			s.emit("crowding", CategoryMigration,
				"The settlement is reaching its sustainable capacity", map[string]any{"humans": st.Humans})
		}
		return
	}

	migrants := max(1, int(float64(st.Humans)*0.03)+int(float64(over)*0.15))
	migrants = min(migrants, over)

	st.Humans -= migrants
	st.TotalMigrations += migrants
	founded := migrants >= 5
	if founded {
		st.SisterSettlements++
	}
	s.emit("emigration", CategoryMigration, migrationDescription(migrants),
		map[string]any{"migrants": migrants, "settlement_founded": founded})
	slog.Debug("emigration", "migrants", migrants, "sister_settlements", st.SisterSettlements)

	if s.rng.Float() < 0.3 && st.Day > 60 {
		gain := s.rng.Uniform(0.05, 0.2)
		st.SurvivalKnowledge += gain
		s.emit("cultural_exchange", CategoryNetwork,
			fmt.Sprintf("The new settlement keeps contact, increasing knowledge by %.2f", gain),
			map[string]any{"knowledge": gain})
	}
}

func migrationDescription(n int) string {
	switch {
	case n == 1:
		return "1 human has left to establish a new settlement elsewhere"
	case n <= 3:
		return fmt.Sprintf("A small family of %d humans has departed to find new territory", n)
	case n <= 8:
		return fmt.Sprintf("A group of %d humans has migrated to establish a new settlement", n)
	default:
		return fmt.Sprintf("A large band of %d humans has departed to establish a new colony", n)
	}
}

// sisterSettlementInteraction rolls for contact with daughter settlements.
func (s *Simulation) sisterSettlementInteraction() {
	st := &s.state
	if st.SisterSettlements == 0 {
		return
	}

	chance := minFloat(0.15, 0.02*float64(st.SisterSettlements))
	switch st.Season {
	case SeasonSpring, SeasonSummer:
		chance *= 1.5
	case SeasonWinter:
		chance *= 0.3
	}
	if s.rng.Float() >= chance {
		return
	}

	switch entropy.Weighted(s.rng, sisterWeights) {
	case sisterTrade:
		amount := s.rng.IntRange(2, 6)
		s.addFood(float64(amount))
		s.emit("sister_trade", CategoryNetwork,
			fmt.Sprintf("A trading party from a sister settlement brought %d units of food", amount),
			map[string]any{"food": amount})

	case sisterKnowledge:
		gain := s.rng.Uniform(0.1, 0.3)
		st.SurvivalKnowledge += gain
		meta := map[string]any{"knowledge": gain}
		desc := fmt.Sprintf("Contact with sister settlements increased knowledge by %.2f", gain)
		if s.rng.Float() < 0.4 {
			if s.rng.Float() < 0.5 {
				st.FarmingLevel++
				st.FarmingEfficiency = farmingEfficiency(st.FarmingLevel)
				meta["farming_level"] = st.FarmingLevel
				desc = fmt.Sprintf("Visitors shared advanced farming techniques (level %d)", st.FarmingLevel)
			} else {
				st.ToolsQuality += 0.1
				meta["tools_quality"] = st.ToolsQuality
				desc = fmt.Sprintf("Visitors shared improved tool-making methods (quality %.1fx)", st.ToolsQuality)
			}
		}
		s.emit("sister_knowledge", CategoryNetwork, desc, meta)

	case sisterReturn:
		returnees := min(s.rng.IntRange(1, 3), s.params.MaxHumans-st.Humans)
		if returnees > 0 {
			st.Humans += returnees
			s.emit("sister_return", CategoryNetwork,
				fmt.Sprintf("%d humans have returned from sister settlements", returnees),
				map[string]any{"humans": returnees})
		}

	case sisterFoodGift:
		if st.FoodStorage < 10 && (st.Plants < 50 || st.Animals < 20) {
			aid := s.rng.IntRange(5, 12)
			s.addFood(float64(aid))
			s.emit("sister_food_gift", CategoryNetwork,
				fmt.Sprintf("Sister settlements sent %d units of emergency food", aid),
				map[string]any{"food": aid})
		}

	case sisterHunt:
		if st.Animals > 30 {
			bonus := s.rng.IntRange(2, 5)
			s.addFood(float64(bonus))
			s.emit("sister_hunt", CategoryNetwork,
				fmt.Sprintf("A joint hunting party brought in %d extra food", bonus),
				map[string]any{"food": bonus})
		}
	}
}
