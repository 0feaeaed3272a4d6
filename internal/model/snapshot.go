package model

// SnapshotRecord is the index entry written for every committed snapshot.
type SnapshotRecord struct {
	Timestamp   int64  `json:"timestamp"`
	Pair        string `json:"pair"`
	SymbolX     string `json:"symbol_x"`
	SymbolY     string `json:"symbol_y"`
	ActiveBin   BinID  `json:"active_bin"`
	BinsSampled int    `json:"bins_sampled"`
	BinsKept    int    `json:"bins_kept"`
	LeftStop    string `json:"left_stop"`
	RightStop   string `json:"right_stop"`
	TablePath   string `json:"table_path"`
	ImagePath   string `json:"image_path"`
	RecordedAt  string `json:"recorded_at"`
}

// Snapshot is one cycle's complete output handed to sinks.
type Snapshot struct {
	Pair   PairMeta
	Chart  Chart
	Record SnapshotRecord
}
