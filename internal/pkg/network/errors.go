package network

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceCount is returned when a network does not hold exactly one source.
	ErrSourceCount = errors.New("network requires exactly one source node")
	// ErrUnknownCableType is returned when a cable references a type absent from the catalog.
	ErrUnknownCableType = errors.New("unknown cable type")
	// ErrInvalidNetwork is returned by Validate.
	ErrInvalidNetwork = errors.New("invalid network")
)

// SourceOf returns the single source node of nodes.
func SourceOf(nodes []Node) (Node, error) {
	var sources []Node
	for _, n := range nodes {
		if n.IsSource {
			sources = append(sources, n)
		}
	}
	if len(sources) != 1 {
		return Node{}, fmt.Errorf("%w: found %d", ErrSourceCount, len(sources))
	}
	return sources[0], nil
}
