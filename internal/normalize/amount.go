package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary value that gateways send either as a JSON number or a numeric string
type Amount float64

// UnmarshalJSON accepts 12.5, "12.5", "$12.50", null and "". NaN and infinities are rejected.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}

	if b[0] != '"' {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("amount %s is not a number: %w", b, err)
		}
		*a = Amount(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %q is not numeric: %w", s, err)
	}
	if !finite(f) {
		return fmt.Errorf("amount %q is not a finite number", s)
	}
	*a = Amount(f)
	return nil
}

// Float returns the amount as a float64
func (a Amount) Float() float64 {
	return float64(a)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// amountMap decodes a {name: amount} object
type amountMap map[string]Amount

func (m amountMap) floats() map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = float64(v)
	}
	return out
}
