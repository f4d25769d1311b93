package domain

import (
	"fmt"
	"strings"
)

// Tier is the ordinal severity of a channel or of the whole installation.
type Tier int

const (
	Stable   Tier = 0
	Caution  Tier = 1
	Critical Tier = 2
)

// NumTiers is the number of classes the severity model predicts.
const NumTiers = 3

// Tiers lists every tier in ascending severity.
var Tiers = []Tier{Stable, Caution, Critical}

func (t Tier) String() string {
	switch t {
	case Stable:
		return "Stable"
	case Caution:
		return "Caution"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t >= Stable && t <= Critical
}

// Badge is the console marker printed in front of the tier name.
func (t Tier) Badge() string {
	switch t {
	case Stable:
		return "✅"
	case Caution:
		return "⚠️"
	case Critical:
		return "🚨"
	default:
		return "?"
	}
}

// Advice is the operator recommendation for an overall tier.
func (t Tier) Advice() string {
	switch t {
	case Stable:
		return "System is running smoothly. No action needed."
	case Caution:
		return "Caution! Monitor the drainage system closely."
	default:
		return "Critical Alert! Immediate maintenance required!"
	}
}

// ParseTier accepts a tier name (case-insensitive) and returns its ordinal.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stable":
		return Stable, nil
	case "caution":
		return Caution, nil
	case "critical":
		return Critical, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", s)
	}
}

// MarshalText encodes the tier by name so reports and the corpus stay readable.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
