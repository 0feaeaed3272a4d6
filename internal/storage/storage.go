package storage

import (
	"context"
	"fmt"
	"strings"

	"lbscope/internal/model"
)

// Sink receives committed snapshots.
type Sink interface {
	PutSnapshot(ctx context.Context, snap model.Snapshot) error
}

// ArtifactName builds the deterministic file name for a snapshot artifact,
// e.g. lb_avax_usdc_1700000000.csv.
func ArtifactName(symbolX, symbolY string, timestamp int64, ext string) string {
	return fmt.Sprintf("lb_%s_%s_%d.%s", sanitize(symbolX), sanitize(symbolY), timestamp, ext)
}

func sanitize(symbol string) string {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '-'
		}
	}, symbol)
}
