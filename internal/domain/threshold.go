package domain

import (
	"fmt"
	"strconv"
)

// Channel identifies a per-sensor threshold rule.
type Channel string

const (
	ChannelGas        Channel = "Gas"
	ChannelWaterSpeed Channel = "Water Speed"
	ChannelWaterLevel Channel = "Water Level"
)

// Channels is the fixed display order of the sensor-wise report.
var Channels = []Channel{ChannelGas, ChannelWaterSpeed, ChannelWaterLevel}

// threshold holds the inclusive upper bounds of the Stable and Caution tiers.
type threshold struct {
	stableMax  float64
	cautionMax float64
	unit       string
	hazard     string // appended to Critical labels
}

var thresholds = map[Channel]threshold{
	ChannelGas:        {stableMax: 500, cautionMax: 700, unit: "ppm", hazard: "Potential Hazard"},
	ChannelWaterSpeed: {stableMax: 1.0, cautionMax: 1.5, unit: "m/s", hazard: "Risk of Flooding"},
	ChannelWaterLevel: {stableMax: 20, cautionMax: 30, unit: "cm", hazard: "Risk of Overflow"},
}

// Unit returns the measurement unit of a channel.
func (c Channel) Unit() string {
	return thresholds[c].unit
}

// ChannelStatus is the rule-based verdict for one sensor.
type ChannelStatus struct {
	Channel Channel `json:"channel"`
	Tier    Tier    `json:"tier"`
	Value   float64 `json:"value"`
	Label   string  `json:"label"`
}

// SensorReport is the per-channel breakdown in Channels order.
type SensorReport []ChannelStatus

// Status returns the entry for a channel.
func (r SensorReport) Status(c Channel) (ChannelStatus, bool) {
	for _, s := range r {
		if s.Channel == c {
			return s, true
		}
	}
	return ChannelStatus{}, false
}

// ClassifyChannel maps one raw value to a tier. Boundary values fall into the
// lower tier: 500 ppm is Stable, 700 ppm is Caution.
func ClassifyChannel(c Channel, value float64) ChannelStatus {
	th, ok := thresholds[c]
	if !ok {
		panic(fmt.Sprintf("domain: unknown channel %q", c))
	}

	var tier Tier
	switch {
	case value <= th.stableMax:
		tier = Stable
	case value <= th.cautionMax:
		tier = Caution
	default:
		tier = Critical
	}

	return ChannelStatus{
		Channel: c,
		Tier:    tier,
		Value:   value,
		Label:   formatLabel(tier, value, th),
	}
}

// ClassifySensors runs the threshold rules over the three physical channels.
func ClassifySensors(r Reading) SensorReport {
	return SensorReport{
		ClassifyChannel(ChannelGas, r.Gas),
		ClassifyChannel(ChannelWaterSpeed, r.WaterSpeed),
		ClassifyChannel(ChannelWaterLevel, r.WaterLevel),
	}
}

// formatLabel renders e.g. "Critical (800 ppm - Potential Hazard)".
func formatLabel(tier Tier, value float64, th threshold) string {
	v := strconv.FormatFloat(value, 'g', -1, 64)
	if tier == Critical {
		return fmt.Sprintf("%s %s (%s %s - %s)", tier.Badge(), tier, v, th.unit, th.hazard)
	}
	return fmt.Sprintf("%s %s (%s %s)", tier.Badge(), tier, v, th.unit)
}
