// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/credverify/pkg/types"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "JOHN SMITH", Normalize("  john \t  smith\n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"ABC", "ABC", 100},
		{"JOHN SMITH", "JON SMITH", 95},
		{"ABCD", "WXYZ", 0},
		{"", "ABC", 0},
		{"ABC", "", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.a, tt.b))
			assert.Equal(t, tt.want, Ratio(tt.b, tt.a), "ratio must be symmetric")
		})
	}
}

func TestOverall(t *testing.T) {
	assert.InDelta(t, 100.0, Overall(100, 100, 100, 100), 1e-9)
	assert.InDelta(t, 90.0, Overall(100, 100, 100, 0), 1e-9)
	assert.InDelta(t, 40.0, Overall(100, 0, 0, 0), 1e-9)
	assert.InDelta(t, 0.0, Overall(0, 0, 0, 0), 1e-9)
}

func TestScore(t *testing.T) {
	row := types.ReferenceRecord{
		CertificateNo: "JH-UNI-2024-001",
		Name:          "John Smith",
		Institution:   "Ranchi Tech Institute",
		Course:        "BBA",
		Year:          2024,
	}

	t.Run("case and spacing do not matter", func(t *testing.T) {
		c := types.CandidateRecord{
			CertificateNo: "jh-uni-2024-001",
			Name:          "JOHN   SMITH",
			Institution:   "RANCHI TECH INSTITUTE",
			Year:          "2024",
		}
		fc := Score(c, row)
		assert.Equal(t, types.FieldConfidence{Cert: 100, Name: 100, Inst: 100, Year: 100, Overall: 100}, fc)
	})

	t.Run("absent fields score zero", func(t *testing.T) {
		c := types.CandidateRecord{
			CertificateNo: types.AbsentMarker,
			Name:          types.AbsentMarker,
			Institution:   types.AbsentMarker,
			Year:          types.AbsentMarker,
		}
		fc := Score(c, row)
		assert.Equal(t, types.FieldConfidence{}, fc)
	})

	t.Run("year is exact only", func(t *testing.T) {
		c := types.CandidateRecord{Year: "2023"}
		assert.Equal(t, 0, Score(c, row).Year)
		c.Year = "2024"
		assert.Equal(t, 100, Score(c, row).Year)
	})
}

func TestResolve(t *testing.T) {
	john := types.ReferenceRecord{
		CertificateNo: "JH-UNI-2024-001",
		Name:          "JOHN SMITH",
		Institution:   "Ranchi Tech Institute",
		Course:        "BBA",
		Year:          2024,
	}
	candidate := types.CandidateRecord{
		CertificateNo: "JH-UNI-2024-001",
		Name:          "JOHN SMITH",
		Institution:   "Ranchi Tech Institute",
		Course:        "BBA",
		Year:          "2024",
	}

	t.Run("exact match", func(t *testing.T) {
		res := Resolve(candidate, []types.ReferenceRecord{john}, DefaultThreshold)
		require.True(t, res.Matched)
		require.NotNil(t, res.Best)
		assert.Equal(t, john, *res.Best)
		assert.InDelta(t, 100.0, res.Scores.Overall, 1e-9)
	})

	t.Run("tie goes to the earlier row", func(t *testing.T) {
		first := john
		first.Course = "first"
		second := john
		second.Course = "second"
		res := Resolve(candidate, []types.ReferenceRecord{first, second}, DefaultThreshold)
		require.True(t, res.Matched)
		assert.Equal(t, "first", res.Best.Course)
	})

	t.Run("higher overall wins regardless of order", func(t *testing.T) {
		near := john
		near.Name = "JON SMITH"
		res := Resolve(candidate, []types.ReferenceRecord{near, john}, DefaultThreshold)
		require.True(t, res.Matched)
		assert.Equal(t, "JOHN SMITH", res.Best.Name)
		assert.Equal(t, 100, res.Scores.Name)
	})

	t.Run("threshold is strict", func(t *testing.T) {
		near := john
		near.Name = "JON SMITH"
		res := Resolve(candidate, []types.ReferenceRecord{near}, 95)
		assert.False(t, res.Matched)
		assert.Equal(t, 95, res.Scores.Name)

		res = Resolve(candidate, []types.ReferenceRecord{near}, 94)
		assert.True(t, res.Matched)
	})

	t.Run("year mismatch blocks an otherwise perfect row", func(t *testing.T) {
		other := john
		other.Year = 2023
		res := Resolve(candidate, []types.ReferenceRecord{other}, DefaultThreshold)
		assert.False(t, res.Matched)
		assert.Nil(t, res.Best)
		assert.Equal(t, 0, res.Scores.Year)
		assert.InDelta(t, 90.0, res.Scores.Overall, 1e-9)
	})

	t.Run("unmatched reports the last row evaluated", func(t *testing.T) {
		a := john
		a.Name = "ZZZZ"
		b := john
		b.CertificateNo = "XX-0"
		res := Resolve(candidate, []types.ReferenceRecord{a, b}, DefaultThreshold)
		assert.False(t, res.Matched)
		assert.Equal(t, Score(candidate, b), res.Scores)
	})

	t.Run("later rejects do not overwrite a match", func(t *testing.T) {
		reject := john
		reject.Year = 1999
		res := Resolve(candidate, []types.ReferenceRecord{john, reject}, DefaultThreshold)
		require.True(t, res.Matched)
		assert.Equal(t, 100, res.Scores.Year)
	})

	t.Run("empty dataset", func(t *testing.T) {
		res := Resolve(candidate, nil, DefaultThreshold)
		assert.False(t, res.Matched)
		assert.Nil(t, res.Best)
		assert.Equal(t, types.FieldConfidence{}, res.Scores)
	})

	t.Run("absent certificate number never matches", func(t *testing.T) {
		c := candidate
		c.CertificateNo = types.AbsentMarker
		res := Resolve(c, []types.ReferenceRecord{john}, DefaultThreshold)
		assert.False(t, res.Matched)
		assert.Equal(t, 0, res.Scores.Cert)
	})
}

func TestResolve_EachFieldGates(t *testing.T) {
	john := types.ReferenceRecord{
		CertificateNo: "JH-UNI-2024-001",
		Name:          "JOHN SMITH",
		Institution:   "Ranchi Tech Institute",
		Year:          2024,
	}
	perfect := types.CandidateRecord{
		CertificateNo: john.CertificateNo,
		Name:          john.Name,
		Institution:   john.Institution,
		Year:          "2024",
	}

	tests := []struct {
		name  string
		lower func(c *types.CandidateRecord)
	}{
		{name: "cert", lower: func(c *types.CandidateRecord) { c.CertificateNo = "XQ-9999" }},
		{name: "name", lower: func(c *types.CandidateRecord) { c.Name = "PRIYA VERMA" }},
		{name: "inst", lower: func(c *types.CandidateRecord) { c.Institution = "Jharkhand Business School" }},
		{name: "year", lower: func(c *types.CandidateRecord) { c.Year = "2019" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := perfect
			tt.lower(&c)
			res := Resolve(c, []types.ReferenceRecord{john}, DefaultThreshold)
			assert.False(t, res.Matched)
			assert.Nil(t, res.Best)
		})
	}
}

func TestAdmissible_FieldAtThreshold(t *testing.T) {
	base := types.FieldConfidence{Cert: 100, Name: 100, Inst: 100, Year: 100}
	require.True(t, Admissible(base, DefaultThreshold))

	fields := map[string]func(fc *types.FieldConfidence, v int){
		"cert": func(fc *types.FieldConfidence, v int) { fc.Cert = v },
		"name": func(fc *types.FieldConfidence, v int) { fc.Name = v },
		"inst": func(fc *types.FieldConfidence, v int) { fc.Inst = v },
	}
	for name, set := range fields {
		t.Run(name, func(t *testing.T) {
			for v := 0; v <= 100; v++ {
				fc := base
				set(&fc, v)
				assert.Equal(t, v > DefaultThreshold, Admissible(fc, DefaultThreshold), "%s=%d", name, v)
			}
		})
	}
}

func TestOverall_Monotonic(t *testing.T) {
	for field := 0; field < 4; field++ {
		for _, other := range []int{0, 50, 100} {
			prev := -1.0
			for v := 0; v <= 100; v++ {
				s := [4]int{other, other, other, other}
				s[field] = v
				got := Overall(s[0], s[1], s[2], s[3])
				assert.GreaterOrEqual(t, got, prev, "field %d at %d with others %d", field, v, other)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 100.0+1e-9)
				prev = got
			}
		}
	}
}
