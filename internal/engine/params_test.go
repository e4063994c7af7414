package engine

import (
	"math"
	"strings"
	"testing"
)

func TestDefaultParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params rejected: %v", err)
	}
}

func TestValidateRejectsNonPositiveRates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		want   string
	}{
		{name: "zero human plant", mutate: func(p *Params) { p.HumanPlantConsumption = 0 }, want: "human_plant_consumption"},
		{name: "negative animal plant", mutate: func(p *Params) { p.AnimalPlantConsumption = -0.1 }, want: "animal_plant_consumption"},
		{name: "zero human animal", mutate: func(p *Params) { p.HumanAnimalConsumption = 0 }, want: "human_animal_consumption"},
		{name: "zero growth", mutate: func(p *Params) { p.PlantGrowthRate = 0 }, want: "plant_growth_rate"},
		{name: "nan reproduction", mutate: func(p *Params) { p.AnimalReproductionRate = math.NaN() }, want: "animal_reproduction_rate"},
		{name: "negative human reproduction", mutate: func(p *Params) { p.HumanReproductionRate = -1 }, want: "human_reproduction_rate"},
		{name: "cycle amplitude", mutate: func(p *Params) { p.Climate.CycleAmplitude = 60 }, want: "cycle_amplitude"},
	}
	for _, tc := range tests {
		p := DefaultParams()
		tc.mutate(&p)
		err := p.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err=%v want mention of %s", tc.name, err, tc.want)
		}
	}
}
