package graphql

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Args holds the evaluated arguments of one root field.
type Args map[string]any

func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", fmt.Errorf("argument %q is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

// Int accepts GraphQL Int values: whole numbers in the signed 32-bit range.
func (a Args) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("argument %q is required", name)
	}
	var i int64
	switch n := v.(type) {
	case int:
		i = int64(n)
	case int64:
		i = n
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, fmt.Errorf("argument %q must be a 32-bit integer", name)
		}
		i = int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %q must be a 32-bit integer", name)
		}
		i = parsed
	default:
		return 0, fmt.Errorf("argument %q must be an integer", name)
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, fmt.Errorf("argument %q must be a 32-bit integer", name)
	}
	return int(i), nil
}

func (a Args) UUID(name string) (uuid.UUID, error) {
	s, err := a.String(name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("argument %q is not a valid id", name)
	}
	return id, nil
}
