package portfolio

import (
	"encoding/csv"
	"fmt"
	"os"
)

// LoadInstruments reads a broker instruments CSV and returns a map from
// trading symbol to instrument display name. The file must have a header
// row containing "trading_symbol" and "name" columns; other columns are
// ignored.
func LoadInstruments(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening instruments file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading instruments file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("instruments file %q is empty", path)
	}

	symbolCol, nameCol := -1, -1
	for i, col := range rows[0] {
		switch col {
		case "trading_symbol":
			symbolCol = i
		case "name":
			nameCol = i
		}
	}
	if symbolCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("instruments file %q missing trading_symbol or name column", path)
	}

	instruments := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= symbolCol || len(row) <= nameCol {
			continue
		}
		if row[symbolCol] == "" {
			continue
		}
		instruments[row[symbolCol]] = row[nameCol]
	}

	return instruments, nil
}
