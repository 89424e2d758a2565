package network

// DefaultCableTypes is a small catalog of common low-voltage cables, used when a
// project does not carry its own.
func DefaultCableTypes() []CableType {
	return []CableType{
		{ID: "baxb-70", Name: "BAXB 4x70 mm²", Material: "Al", R12: 0.443, X12: 0.080, R0: 1.772, X0: 0.320},
		{ID: "baxb-95", Name: "BAXB 4x95 mm²", Material: "Al", R12: 0.320, X12: 0.080, R0: 1.280, X0: 0.320},
		{ID: "baxb-150", Name: "BAXB 4x150 mm²", Material: "Al", R12: 0.206, X12: 0.079, R0: 0.824, X0: 0.316},
		{ID: "exvb-16", Name: "EXVB 4x16 mm²", Material: "Cu", R12: 1.150, X12: 0.085, R0: 4.600, X0: 0.340},
		{ID: "exvb-35", Name: "EXVB 4x35 mm²", Material: "Cu", R12: 0.524, X12: 0.083, R0: 2.096, X0: 0.332},
		{ID: "exvb-50", Name: "EXVB 4x50 mm²", Material: "Cu", R12: 0.387, X12: 0.081, R0: 1.548, X0: 0.324},
	}
}
