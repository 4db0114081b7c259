// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve matches an extracted CandidateRecord against the reference
// dataset using per-field fuzzy similarity and a fixed weighted composite.
// Resolution only reads the dataset.
package resolve

import (
	"github.com/pdiddy/credverify/pkg/types"
)

// DefaultThreshold is the per-field similarity gate for cert, name, and
// institution.
const DefaultThreshold = 85

// yearGate is the bar the year score must clear. Year scores are 0 or 100.
const yearGate = 50

// Composite weights. They sum to 1.
const (
	weightCert = 0.4
	weightName = 0.3
	weightInst = 0.2
	weightYear = 0.1
)

// Result is the outcome of resolving one candidate.
type Result struct {
	// Matched is true when at least one row passed every gate.
	Matched bool

	// Best is the admissible row with the highest overall score, or nil.
	Best *types.ReferenceRecord

	// Scores belong to Best when Matched. Otherwise they are the raw scores
	// of the last row evaluated and describe no particular match.
	Scores types.FieldConfidence
}

// Overall computes the weighted composite of the per-field scores.
func Overall(cert, name, inst, year int) float64 {
	return weightCert*float64(cert) + weightName*float64(name) +
		weightInst*float64(inst) + weightYear*float64(year)
}

// Score computes the per-field and composite confidence of candidate
// against one reference row.
func Score(candidate types.CandidateRecord, row types.ReferenceRecord) types.FieldConfidence {
	fc := types.FieldConfidence{
		Cert: fieldRatio(candidate.CertificateNo, row.CertificateNo),
		Name: fieldRatio(candidate.Name, row.Name),
		Inst: fieldRatio(candidate.Institution, row.Institution),
		Year: yearScore(candidate.Year, row),
	}
	fc.Overall = Overall(fc.Cert, fc.Name, fc.Inst, fc.Year)
	return fc
}

// Admissible reports whether scores pass every gate: cert, name, and inst
// strictly above threshold and the year score above 50.
func Admissible(fc types.FieldConfidence, threshold int) bool {
	return fc.Cert > threshold &&
		fc.Name > threshold &&
		fc.Inst > threshold &&
		fc.Year > yearGate
}

// Resolve scans rows in order and returns the admissible row with the
// highest overall score. On equal scores the earlier row wins.
func Resolve(candidate types.CandidateRecord, rows []types.ReferenceRecord, threshold int) Result {
	var res Result
	for i := range rows {
		fc := Score(candidate, rows[i])
		if !Admissible(fc, threshold) {
			if !res.Matched {
				res.Scores = fc
			}
			continue
		}
		if !res.Matched || fc.Overall > res.Scores.Overall {
			best := rows[i]
			res.Matched = true
			res.Best = &best
			res.Scores = fc
		}
	}
	return res
}
