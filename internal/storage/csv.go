package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"lbscope/internal/model"
)

var tableHeader = []string{"bin_id", "reserveX", "reserveY", "bin_price", "reserveX_in_Y"}

// WriteTable encodes a liquidity table as CSV keyed by bin_id.
func WriteTable(w io.Writer, table model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range table.Rows {
		record := []string{
			strconv.FormatInt(int64(row.BinID), 10),
			formatFloat(row.ReserveX),
			formatFloat(row.ReserveY),
			formatFloat(row.BinPrice),
			formatFloat(row.ReserveXInY),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write bin %d: %w", row.BinID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}

// ReadTable decodes a table written by WriteTable. Columns are matched by
// header name so extra columns are ignored.
func ReadTable(r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return model.Table{}, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range tableHeader {
		if _, ok := index[name]; !ok {
			return model.Table{}, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []model.Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseInt(record[index["bin_id"]], 10, 64)
		if err != nil {
			return model.Table{}, fmt.Errorf("line %d bin_id: %w", line, err)
		}
		row := model.Row{BinID: model.BinID(id)}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"reserveX", &row.ReserveX},
			{"reserveY", &row.ReserveY},
			{"bin_price", &row.BinPrice},
			{"reserveX_in_Y", &row.ReserveXInY},
		}
		for _, f := range fields {
			val, err := strconv.ParseFloat(record[index[f.name]], 64)
			if err != nil {
				return model.Table{}, fmt.Errorf("line %d %s: %w", line, f.name, err)
			}
			*f.dst = val
		}
		rows = append(rows, row)
	}
	return model.Table{Rows: rows}, nil
}

// ReadTableFile opens and decodes a table file.
func ReadTableFile(path string) (model.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.Table{}, fmt.Errorf("open table: %w", err)
	}
	defer file.Close()
	return ReadTable(file)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
