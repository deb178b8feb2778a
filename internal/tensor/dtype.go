// Package tensor provides the dense tensor type used by the convnet layers.
package tensor

import (
	"fmt"
	"strings"
)

// DataType is the working precision of a tensor.
//
// Storage is always float64. A Float32 tensor keeps every element rounded
// to float32 precision, so arithmetic on it reproduces single-precision
// results element by element.
type DataType int

// Supported data types for tensors.
const (
	Float64 DataType = iota
	Float32
)

// Size returns the byte size of one element when serialized.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDataType converts a config string ("float32", "float64") to a DataType.
// An empty string selects Float64.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "", "float64", "double":
		return Float64, nil
	case "float32", "float":
		return Float32, nil
	default:
		return 0, fmt.Errorf("unknown dtype %q", s)
	}
}

// round applies the precision of dt to v.
func (dt DataType) round(v float64) float64 {
	if dt == Float32 {
		return float64(float32(v))
	}
	return v
}
