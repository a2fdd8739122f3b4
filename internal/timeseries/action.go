// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package timeseries

import "github.com/samber/oops"

// NormalizeAction canonicalizes a combine operator. The multiply synonyms
// "×" and "x" map to "*"; an empty operator means assignment.
func NormalizeAction(action string) string {
	switch action {
	case "×", "x":
		return "*"
	case "":
		return "="
	default:
		return action
	}
}

// ApplyAction combines a base value with an operand under a PLEXOS combine
// operator. "=" discards the base and returns the operand. Division by an
// operand of exactly zero is an error rather than an infinity.
func ApplyAction(base, operand float64, action string) (float64, error) {
	switch NormalizeAction(action) {
	case "=":
		return operand, nil
	case "*":
		return base * operand, nil
	case "+":
		return base + operand, nil
	case "-":
		return base - operand, nil
	case "/":
		if operand == 0 {
			return 0, oops.Code("DIVIDE_BY_ZERO").
				With("base", base).
				Errorf("cannot divide by zero")
		}
		return base / operand, nil
	default:
		return 0, oops.Code("ACTION_UNSUPPORTED").
			With("action", action).
			Errorf("unsupported action %q", action)
	}
}

// ApplyActionSeries maps ApplyAction elementwise over a series, treating
// each observation as the base value. "=" is a no-op that returns the
// series unchanged. Any other operator produces a new series with the same
// name, start, and resolution.
func ApplyActionSeries(s *Series, action string, operand float64) (*Series, error) {
	norm := NormalizeAction(action)
	if norm == "=" {
		return s, nil
	}
	if norm == "/" && operand == 0 {
		return nil, oops.Code("DIVIDE_BY_ZERO").
			With("series", s.Name).
			Errorf("cannot divide by zero")
	}
	out := s.Clone()
	for i, v := range out.Values {
		combined, err := ApplyAction(v, operand, norm)
		if err != nil {
			return nil, oops.With("series", s.Name).With("index", i).Wrap(err)
		}
		out.Values[i] = combined
	}
	return out, nil
}
