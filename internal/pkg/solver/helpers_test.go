package solver

import "github.com/google/go-cmp/cmp/cmpopts"

var floatTolerance = cmpopts.EquateApprox(0, 1e-9)
