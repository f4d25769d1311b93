// Package domain models drainage telemetry and its severity classification.
//
// # Readings
//
// A monitored drainage point reports four values per sample:
//
//	gas           parts per million, expected 0–2000
//	water_speed   meters per second, expected 0–10
//	water_level   centimeters, expected 0–200
//	gps_location  small positive integer code of the monitored point
//
// Gateways hand over the fields untyped ([RawReading]) because the upstream
// stores are schemaless. [ParseReading] is the single place that decides
// whether a sample is usable; anything missing, non-numeric or non-finite is
// rejected with [ErrMalformedReading].
//
// # Tiers
//
// Severity is ordinal: Stable=0 < Caution=1 < Critical=2. The same
// enumeration labels the training corpus and interprets model output, and
// the advice text branches on it, so the numeric values are fixed.
//
// # Per-channel thresholds
//
// Boundaries belong to the safer tier:
//
//	Gas:         ≤500 Stable | ≤700 Caution | >700 Critical   (ppm)
//	Water Speed: ≤1.0 Stable | ≤1.5 Caution | >1.5 Critical   (m/s)
//	Water Level: ≤20 Stable  | ≤30 Caution  | >30 Critical    (cm)
//
// # Location feature
//
// The location code is fed to the model as a bare number. The ensemble can
// only split it by order, so it acts as an ordinal proxy for site risk. This
// is a known limitation, kept so the trained boundaries stay comparable
// with earlier deployments.
package domain
