package chart

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is a chart type the presentation layer can draw.
type Kind string

// Supported chart kinds.
const (
	KindBar Kind = "bar"
	KindPie Kind = "pie"
)

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	return k == KindBar || k == KindPie
}

// ErrInvalidChart is returned when a payload does not have the chart shape.
var ErrInvalidChart = errors.New("payload is not a chart")

// Point is one labelled value.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Chart is the expected shape of a structured payload.
type Chart struct {
	Type  Kind    `json:"type"`
	Title string  `json:"title"`
	Data  []Point `json:"data"`
}

// Decode converts a parsed payload into a Chart. Split does not validate the
// shape; callers that draw charts use Decode.
func Decode(payload any) (Chart, error) {
	if payload == nil {
		return Chart{}, ErrInvalidChart
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Chart{}, fmt.Errorf("%w: %w", ErrInvalidChart, err)
	}
	var c Chart
	if err := json.Unmarshal(raw, &c); err != nil {
		return Chart{}, fmt.Errorf("%w: %w", ErrInvalidChart, err)
	}
	if !c.Type.Valid() {
		return Chart{}, fmt.Errorf("%w: unknown type %q", ErrInvalidChart, c.Type)
	}
	return c, nil
}
