// Package reconcile holds the rules deciding whether a roll's weight and
// length come from the device or from manual operator entry.
package reconcile

import (
	"fabric-inspection-backend/internal/model"
	"fabric-inspection-backend/internal/store"
	"fabric-inspection-backend/internal/telemetry"
)

// Field maps an instrument channel to the roll column it feeds.
func Field(ch telemetry.Channel) (store.MeasurementField, bool) {
	switch ch {
	case telemetry.ChannelWeight:
		return store.FieldWeight, true
	case telemetry.ChannelLength:
		return store.FieldLength, true
	}
	return "", false
}

// Merge propagates a polled reading into the roll. Any non-zero value is
// honored regardless of the connectivity flag: connectivity only gates whether
// polling is attempted, not whether an obtained value is accepted. Values are
// carried as received, with no rounding or unit conversion.
func Merge(roll *model.FabricRoll, ch telemetry.Channel, value float64) (store.MeasurementField, bool) {
	if value == 0 {
		return "", false
	}
	return set(roll, ch, value)
}

// Apply records an explicit operator override. It always wins immediately,
// zero included, overwriting whatever is currently in the field.
func Apply(roll *model.FabricRoll, ch telemetry.Channel, value float64) (store.MeasurementField, bool) {
	return set(roll, ch, value)
}

func set(roll *model.FabricRoll, ch telemetry.Channel, value float64) (store.MeasurementField, bool) {
	field, ok := Field(ch)
	if !ok {
		return "", false
	}
	switch field {
	case store.FieldWeight:
		roll.Weight = value
	case store.FieldLength:
		roll.Length = value
	}
	return field, true
}
