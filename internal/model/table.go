package model

// Row is a decimal-corrected, priced bin.
type Row struct {
	BinID       BinID   `json:"bin_id"`
	ReserveX    float64 `json:"reserveX"`
	ReserveY    float64 `json:"reserveY"`
	BinPrice    float64 `json:"bin_price"`
	ReserveXInY float64 `json:"reserveX_in_Y"`
}

// Table is a liquidity table ordered by bin id ascending.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Chart carries everything a renderer needs to draw one snapshot.
type Chart struct {
	Table     Table
	Timestamp int64
	ActiveBin BinID
	SymbolX   string
	SymbolY   string
}
