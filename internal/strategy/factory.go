package strategy

import "strings"

// Params expresses the tunable knobs required by strategy constructors.
type Params struct {
	SMAWindow  int
	BBWindow   int
	NumStdDevs float64
}

// Build returns the strategy implementations matching the configured modes,
// in configured order. Unknown modes are skipped; an empty mode list defaults
// to the SMA crossover.
func Build(modes []string, params Params) []Strategy {
	if len(modes) == 0 {
		modes = []string{"sma_crossover"}
	}
	strategies := make([]Strategy, 0, len(modes))
	for _, mode := range modes {
		switch strings.ToLower(strings.TrimSpace(mode)) {
		case "sma", "sma_crossover":
			strategies = append(strategies, NewSMACrossover(params.SMAWindow))
		case "bb", "bollinger", "bollinger_bands":
			strategies = append(strategies, NewBollingerBands(params.BBWindow, params.NumStdDevs))
		}
	}
	if len(strategies) == 0 {
		strategies = append(strategies, NewSMACrossover(params.SMAWindow))
	}
	return strategies
}
