// Package record describes the Log Record and how a raw CSV line maps onto it.
package record

import "strings"

// Delimiter separates fields in an input line. Quoting is not supported.
const Delimiter = ","

// Column names of the log table, in positional CSV order.
var Columns = []string{
	"timestamp",
	"state",
	"temp",
	"humidity",
	"ambient_temp",
	"ambient_humidity",
	"control_room_temp",
}

// FieldCount is the number of fields every input line must carry.
var FieldCount = len(Columns)

// KeyColumn is the primary key of the log table.
const KeyColumn = "timestamp"

// MaxTimestamp is the largest value an unsigned 32 bit timestamp column holds.
const MaxTimestamp = 4294967295

// nullable marks the positions where an empty field is stored as NULL.
var nullable = []bool{false, false, false, false, false, true, true}

// LogRecord is one row of sensor and relay state, keyed by timestamp.
type LogRecord struct {
	Timestamp       int64
	State           int64
	Temp            float64
	Humidity        float64
	AmbientTemp     float64
	AmbientHumidity *float64
	ControlRoomTemp *float64
}

// Split trims the line terminator and splits a raw line into its fields.
// It never validates the result; a wrong count or a non-numeric value is
// left for the store to reject.
func Split(line string) []string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return strings.Split(line, Delimiter)
}

// Args converts split fields into statement arguments. Values are bound as
// their raw text so the store performs numeric conversion. An empty field in
// a nullable position becomes NULL.
func Args(fields []string) []interface{} {
	args := make([]interface{}, len(fields))
	for i, f := range fields {
		if f == "" && i < len(nullable) && nullable[i] {
			args[i] = nil
			continue
		}
		args[i] = f
	}
	return args
}

// ScanTargets returns pointers to the record fields in column order.
func (r *LogRecord) ScanTargets() []interface{} {
	return []interface{}{
		&r.Timestamp,
		&r.State,
		&r.Temp,
		&r.Humidity,
		&r.AmbientTemp,
		&r.AmbientHumidity,
		&r.ControlRoomTemp,
	}
}
