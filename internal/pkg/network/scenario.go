package network

import (
	"fmt"
	"strings"
)

// Scenario selects how each node's net power is derived.
type Scenario string

const (
	// Withdrawal counts client demand only.
	Withdrawal Scenario = "PRÉLÈVEMENT"
	// Injection counts production only, as negative power.
	Injection Scenario = "PRODUCTION"
	// Mixed counts demand minus production.
	Mixed Scenario = "MIXTE"
)

// Scenarios lists the supported scenarios in display order.
var Scenarios = []Scenario{Withdrawal, Injection, Mixed}

// ParseScenario accepts the canonical tags and their english names.
func ParseScenario(s string) (Scenario, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(string(Withdrawal)), "prelevement", "withdrawal":
		return Withdrawal, nil
	case strings.ToLower(string(Injection)), "injection":
		return Injection, nil
	case strings.ToLower(string(Mixed)), "mixed":
		return Mixed, nil
	}
	return "", fmt.Errorf("unknown scenario %q", s)
}

// String returns the english name of the scenario.
func (s Scenario) String() string {
	switch s {
	case Withdrawal:
		return "withdrawal"
	case Injection:
		return "production"
	case Mixed:
		return "mixed"
	}
	return string(s)
}

// Compliance is the voltage deviation band of a cable or of the whole network.
type Compliance string

const (
	Compliant Compliance = "compliant"
	Warning   Compliance = "warning"
	Critical  Compliance = "critical"
)

// Deviation thresholds, in percent of the nominal voltage.
const (
	CompliantLimitPercent = 8.0
	WarningLimitPercent   = 10.0
)

// Classify bands the magnitude of a voltage deviation.
func Classify(percent float64) Compliance {
	abs := percent
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= CompliantLimitPercent:
		return Compliant
	case abs <= WarningLimitPercent:
		return Warning
	}
	return Critical
}
