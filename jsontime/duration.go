// Package jsontime holds JSON forms of time values used in config files.
package jsontime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration in `jsontime` package
// implements: json.Marshaler and json.Unmarshaler as a Go duration string ("2s", "100ms").
// A bare number is refused unless it is 0, since its unit would be a guess.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var n float64
		if json.Unmarshal(data, &n) == nil {
			if n == 0 {
				*d = 0
				return nil
			}
			return fmt.Errorf("duration %s has no unit: write it as a string like \"%gs\" or \"%gms\"", data, n, n)
		}
		return err
	}
	v, err := time.ParseDuration(str)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
