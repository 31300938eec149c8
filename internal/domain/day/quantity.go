package day

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Quantity is a body measurement value. Non-numeric input decodes to zero
// ("not recorded") instead of failing the whole record.
type Quantity float64

// UnmarshalJSON accepts numbers and numeric strings.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*q = parseQuantity(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*q = parseQuantity(s)
		return nil
	}
	*q = 0
	return nil
}

// UnmarshalYAML accepts scalar numbers and numeric strings.
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*q = 0
		return nil
	}
	*q = parseQuantity(node.Value)
	return nil
}

func parseQuantity(s string) Quantity {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return Quantity(v)
}
