// Package chain reduces the day's ordered events to a chain length.
// Negative events shorten the chain by a severity-tiered penalty instead
// of resetting it.
package chain

import (
	"github.com/sawpanic/cascade/internal/domain/factors"
)

// Severity of a negative event.
type Severity string

const (
	SeverityMinor  Severity = "minor"
	SeverityMedium Severity = "medium"
	SeveritySevere Severity = "severe"
)

// Config holds the severity boundaries and penalties.
type Config struct {
	SevereBelow   float64 `yaml:"severe_below"` // weight < -1.5
	MediumBelow   float64 `yaml:"medium_below"` // weight < -0.5
	SeverePenalty int     `yaml:"severe_penalty"`
	MediumPenalty int     `yaml:"medium_penalty"`
	MinorPenalty  int     `yaml:"minor_penalty"`
}

// DefaultConfig returns the production tiers.
func DefaultConfig() Config {
	return Config{
		SevereBelow:   -1.5,
		MediumBelow:   -0.5,
		SeverePenalty: 3,
		MediumPenalty: 2,
		MinorPenalty:  1,
	}
}

// Classify returns severity and penalty for a negative weight.
func (c Config) Classify(weight float64) (Severity, int) {
	switch {
	case weight < c.SevereBelow:
		return SeveritySevere, c.SeverePenalty
	case weight < c.MediumBelow:
		return SeverityMedium, c.MediumPenalty
	default:
		return SeverityMinor, c.MinorPenalty
	}
}

// Warning records one chain break.
type Warning struct {
	Reason      string   `json:"reason"`
	Label       string   `json:"label"`
	Severity    Severity `json:"severity"`
	Penalty     int      `json:"penalty"`
	ChainBefore int      `json:"chain_before"`
	ChainAfter  int      `json:"chain_after"`
}

// Result of aggregating one day.
type Result struct {
	Length       int       `json:"length"`
	Max          int       `json:"max"`
	Warnings     []Warning `json:"warnings"`
	TotalPenalty int       `json:"total_penalty"`
	Positives    int       `json:"positives"`
}

// Aggregate walks events in the given order.
func (c Config) Aggregate(events []factors.Event) Result {
	var res Result
	chain := 0
	for _, e := range events {
		if e.Positive {
			chain++
			res.Positives++
			if chain > res.Max {
				res.Max = chain
			}
			continue
		}
		severity, penalty := c.Classify(e.Weight)
		before := chain
		chain -= penalty
		if chain < 0 {
			chain = 0
		}
		reason := e.BreakReason
		if reason == "" {
			reason = string(e.Category)
		}
		res.Warnings = append(res.Warnings, Warning{
			Reason:      reason,
			Label:       e.Label,
			Severity:    severity,
			Penalty:     penalty,
			ChainBefore: before,
			ChainAfter:  chain,
		})
		res.TotalPenalty += penalty
	}
	res.Length = chain
	return res
}
