package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the structural constraints of a network snapshot: required
// identifiers, non-negative powers, lengths and impedances, unique node, cable and
// cable-type identifiers. It does not check the source count or references; those are
// reported by the engine itself.
func Validate(n Network) error {
	if err := validate.Struct(n); err != nil {
		return formatValidationError(err)
	}

	if err := unique("node", len(n.Nodes), func(i int) string { return n.Nodes[i].ID }); err != nil {
		return err
	}
	if err := unique("cable", len(n.Cables), func(i int) string { return n.Cables[i].ID }); err != nil {
		return err
	}
	return unique("cable type", len(n.CableTypes), func(i int) string { return n.CableTypes[i].ID })
}

func unique(kind string, count int, id func(int) string) error {
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		if _, ok := seen[id(i)]; ok {
			return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidNetwork, kind, id(i))
		}
		seen[id(i)] = struct{}{}
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidNetwork, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: is required", e.Namespace()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s: must be >= %s, got %v", e.Namespace(), e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s validation", e.Namespace(), e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidNetwork, strings.Join(msgs, "; "))
}
