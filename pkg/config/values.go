package config

import (
	"fmt"
	"math"
	"time"
)

// JSON decoding yields float64 for numbers and strings for durations, so
// section setters accept both shapes.

func durationValue(key string, value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	case int:
		return time.Duration(v), nil
	case time.Duration:
		return v, nil
	}
	return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
}

func intValue(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid value for %s: %v is not an integer", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	}
	return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
}

func boolValue(key string, value interface{}) (bool, error) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("invalid value type for %s: expected bool, got %T", key, value)
}

func stringValue(key string, value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
}

func stringsValue(key string, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid item type in %s: expected string, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("invalid value type for %s: expected list of strings, got %T", key, value)
}
