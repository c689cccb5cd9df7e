package verdict

// Weights defines how much each finding severity contributes to the risk score
type Weights struct {
	High   int
	Medium int
	Low    int
}

type Config struct {
	Weights Weights

	// Confidence by evidence shape
	BaseConfidence  float64 // no interactions found
	SinglePathway   float64 // every finding from one source
	MultiPathway    float64 // corroborated across sources
	DegradedPenalty float64 // subtracted when any pathway timed out or failed

	MaxRiskScore int
}

func DefaultConfig() Config {
	return Config{
		Weights:         Weights{High: 40, Medium: 20, Low: 10},
		BaseConfidence:  0.90,
		SinglePathway:   0.80,
		MultiPathway:    0.85,
		DegradedPenalty: 0.10,
		MaxRiskScore:    100,
	}
}
