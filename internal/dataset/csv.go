// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset loads the reference records that extracted certificates
// are resolved against. Records come from a CSV file or from a SQLite
// database that also stores per-institution reference image locations.
// Row order is preserved everywhere because resolution ties go to the
// earlier row.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/credverify/pkg/types"
)

// Columns lists the required CSV header fields.
var Columns = []string{"certificate_no", "name", "institution", "course", "year"}

// LoadCSV reads reference records from the CSV file at path.
func LoadCSV(path string) ([]types.ReferenceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()
	recs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return recs, nil
}

// ReadCSV parses reference records. The header must name every column in
// Columns, in any order and case; extra columns are ignored. Blank lines
// are skipped.
func ReadCSV(r io.Reader) ([]types.ReferenceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header")
	}
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header missing columns: %s", strings.Join(missing, ", "))
	}

	var recs []types.ReferenceRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		field := func(name string) string {
			if i := idx[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		yearText := field("year")
		year, err := strconv.Atoi(yearText)
		if err != nil {
			return nil, fmt.Errorf("line %d: year %q is not a number", line, yearText)
		}
		recs = append(recs, types.ReferenceRecord{
			CertificateNo: field("certificate_no"),
			Name:          field("name"),
			Institution:   field("institution"),
			Course:        field("course"),
			Year:          year,
		})
	}
	return recs, nil
}

// WriteCSV writes records with the Columns header.
func WriteCSV(w io.Writer, recs []types.ReferenceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write([]string{r.CertificateNo, r.Name, r.Institution, r.Course, r.YearString()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
