package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func str(field func(*Settings) *string) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		*field(s) = raw
		return nil
	}
}

func integer(field func(*Settings) *int) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		*field(s) = n
		return nil
	}
}

func float(field func(*Settings) *float64) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		*field(s) = f
		return nil
	}
}

func boolean(field func(*Settings) *bool) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		switch strings.ToLower(raw) {
		case "1", "true", "yes", "on":
			*field(s) = true
		case "0", "false", "no", "off", "":
			*field(s) = false
		default:
			return fmt.Errorf("invalid boolean %q", raw)
		}
		return nil
	}
}

// duration accepts Go duration syntax or a bare number of seconds.
func duration(field func(*Settings) *time.Duration) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		if secs, err := strconv.ParseFloat(raw, 64); err == nil {
			*field(s) = time.Duration(secs * float64(time.Second))
			return nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q", raw)
		}
		*field(s) = d
		return nil
	}
}
