// Package expr parses the enablement grammar
//
//	service.configuration.FIELD == value
//	service.configuration.FIELD != value
//
// into model.Condition values. value is a boolean, number or string literal;
// strings may be double quoted, single quoted or bare words.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sourceplane/stackgen/internal/model"
)

const configurationSegment = ".configuration."

// ParseCondition parses a single enablement expression
func ParseCondition(input string) (model.Condition, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, fmt.Errorf("empty expression")
	}

	op, idx := findOperator(s)
	if idx < 0 {
		return nil, fmt.Errorf("expression %q: expected == or !=", input)
	}

	key, err := ParsePath(s[:idx])
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", input, err)
	}

	value, err := ParseLiteral(s[idx+len(op):])
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", input, err)
	}

	if op == "==" {
		return model.Equals{Path: key, Value: value}, nil
	}
	return model.NotEquals{Path: key, Value: value}, nil
}

// ParsePath parses a canonical service.configuration.FIELD path
func ParsePath(input string) (model.FieldKey, error) {
	s := strings.TrimSpace(input)
	idx := strings.Index(s, configurationSegment)
	if idx <= 0 {
		return model.FieldKey{}, fmt.Errorf("path %q must have the form service.configuration.field", s)
	}

	key := model.FieldKey{
		Service: s[:idx],
		Field:   s[idx+len(configurationSegment):],
	}
	if key.Field == "" {
		return model.FieldKey{}, fmt.Errorf("path %q has an empty field name", s)
	}
	if !validIdentifier(key.Service) || !validIdentifier(key.Field) {
		return model.FieldKey{}, fmt.Errorf("path %q contains invalid characters", s)
	}
	return key, nil
}

// ParseLiteral parses the right-hand side of an expression
func ParseLiteral(input string) (any, error) {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return nil, fmt.Errorf("missing literal")
	case s == "true":
		return true, nil
	case s == "false":
		return false, nil
	case strings.HasPrefix(s, `"`):
		v, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("invalid string literal %s", s)
		}
		return v, nil
	case strings.HasPrefix(s, "'"):
		if len(s) < 2 || !strings.HasSuffix(s, "'") {
			return nil, fmt.Errorf("invalid string literal %s", s)
		}
		return s[1 : len(s)-1], nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	if strings.ContainsAny(s, " \t=!<>") {
		return nil, fmt.Errorf("unsupported literal %q", s)
	}
	return s, nil
}

func findOperator(s string) (string, int) {
	eq := strings.Index(s, "==")
	ne := strings.Index(s, "!=")
	switch {
	case eq < 0 && ne < 0:
		return "", -1
	case eq < 0:
		return "!=", ne
	case ne < 0:
		return "==", eq
	case ne < eq:
		return "!=", ne
	default:
		return "==", eq
	}
}

func validIdentifier(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
