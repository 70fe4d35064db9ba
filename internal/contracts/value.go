package contracts

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a nullable metric observation.
// The zero Value is null: an undisclosed figure is a typed state, never 0.
type Value struct {
	v     float64
	valid bool
}

// Some wraps a defined number. NaN and ±Inf collapse to null.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, valid: true}
}

// Null returns the undefined value
func Null() Value {
	return Value{}
}

// Get returns the number and whether it is defined
func (x Value) Get() (float64, bool) {
	return x.v, x.valid
}

// IsNull reports whether the value is undefined
func (x Value) IsNull() bool {
	return !x.valid
}

// Or returns the number, or def when null
func (x Value) Or(def float64) float64 {
	if !x.valid {
		return def
	}
	return x.v
}

// Div divides x by d. A null operand or zero denominator yields null.
func (x Value) Div(d Value) Value {
	if !x.valid || !d.valid || d.v == 0 {
		return Null()
	}
	return Some(x.v / d.v)
}

// Equal compares two values; two nulls are equal
func (x Value) Equal(o Value) bool {
	if x.valid != o.valid {
		return false
	}
	return !x.valid || x.v == o.v
}

func (x Value) String() string {
	if !x.valid {
		return "null"
	}
	return strconv.FormatFloat(x.v, 'f', -1, 64)
}

// MarshalJSON encodes null values as JSON null
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.valid {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON accepts a number or null
func (x *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*x = Null()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*x = Some(f)
	return nil
}

// ParseValue parses a textual cell. Empty strings and the usual null
// spellings (NaN, N/A, null, None) yield null.
func ParseValue(s string) (Value, error) {
	switch s {
	case "", "NaN", "nan", "N/A", "null", "None", "-":
		return Null(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(), err
	}
	return Some(f), nil
}
