package store

// MeasurementField identifies one of the two device-fed roll columns.
type MeasurementField string

const (
	FieldWeight MeasurementField = "weight"
	FieldLength MeasurementField = "length"
)

// Column maps a measurement field to its database column, or "" if the field
// is not a recognized measurement.
func (f MeasurementField) Column() string {
	switch f {
	case FieldWeight:
		return "weight"
	case FieldLength:
		return "length"
	}
	return ""
}
