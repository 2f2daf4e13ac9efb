// Package export renders directory entries as CSV, JSON or a terminal table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat accepts table, csv or json in any case.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, csv or json)", raw)
	}
}

// Header is the column order shared by CSV and table output.
var Header = []string{"displayName", "jobTitle", "department", "officeLocation", "availability", "activity", "statusMessage"}

func row(e directory.EnrichedEntry) []string {
	return []string{e.DisplayName, e.JobTitle, e.Department, e.OfficeLocation, string(e.Availability), e.Activity, e.StatusMessage}
}

// Write renders entries in format f.
func Write(w io.Writer, f Format, entries []directory.EnrichedEntry) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatJSON:
		return WriteJSON(w, entries)
	case FormatTable, "":
		return WriteTable(w, entries)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

func WriteCSV(w io.Writer, entries []directory.EnrichedEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(row(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes entries as an indented array; an empty result is [].
func WriteJSON(w io.Writer, entries []directory.EnrichedEntry) error {
	if entries == nil {
		entries = []directory.EnrichedEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
