package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lbscope/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS lb_pairs (
	pair_address TEXT PRIMARY KEY,
	token_x TEXT NOT NULL,
	token_y TEXT NOT NULL,
	symbol_x TEXT NOT NULL,
	symbol_y TEXT NOT NULL,
	decimals_x SMALLINT NOT NULL,
	decimals_y SMALLINT NOT NULL,
	bin_step INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS lb_snapshots (
	pair_address TEXT NOT NULL REFERENCES lb_pairs (pair_address),
	snapshot_ts TIMESTAMPTZ NOT NULL,
	active_bin BIGINT NOT NULL,
	bins_sampled INTEGER NOT NULL,
	bins_kept INTEGER NOT NULL,
	left_stop TEXT NOT NULL,
	right_stop TEXT NOT NULL,
	table_path TEXT NOT NULL,
	image_path TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pair_address, snapshot_ts)
);
CREATE TABLE IF NOT EXISTS lb_snapshot_bins (
	pair_address TEXT NOT NULL,
	snapshot_ts TIMESTAMPTZ NOT NULL,
	bin_id BIGINT NOT NULL,
	reserve_x DOUBLE PRECISION NOT NULL,
	reserve_y DOUBLE PRECISION NOT NULL,
	bin_price DOUBLE PRECISION NOT NULL,
	reserve_x_in_y DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (pair_address, snapshot_ts, bin_id),
	FOREIGN KEY (pair_address, snapshot_ts) REFERENCES lb_snapshots (pair_address, snapshot_ts) ON DELETE CASCADE
);
`

// Store provides Postgres persistence for liquidity snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the snapshot tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// PutSnapshot writes the pair, the snapshot header and every bin row in one transaction.
func (s *Store) PutSnapshot(ctx context.Context, snap model.Snapshot) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	pair := snap.Pair
	ts := time.Unix(snap.Record.Timestamp, 0).UTC()

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO lb_pairs (
			pair_address, token_x, token_y, symbol_x, symbol_y, decimals_x, decimals_y, bin_step, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (pair_address)
		DO UPDATE SET
			symbol_x = EXCLUDED.symbol_x,
			symbol_y = EXCLUDED.symbol_y,
			bin_step = EXCLUDED.bin_step,
			updated_at = now()
	`,
		pair.Address,
		pair.TokenX.Address,
		pair.TokenY.Address,
		pair.TokenX.Symbol,
		pair.TokenY.Symbol,
		int16(pair.TokenX.Decimals),
		int16(pair.TokenY.Decimals),
		int32(pair.BinStep),
	)
	batch.Queue(`
		INSERT INTO lb_snapshots (
			pair_address, snapshot_ts, active_bin, bins_sampled, bins_kept, left_stop, right_stop, table_path, image_path
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (pair_address, snapshot_ts)
		DO UPDATE SET
			active_bin = EXCLUDED.active_bin,
			bins_sampled = EXCLUDED.bins_sampled,
			bins_kept = EXCLUDED.bins_kept,
			left_stop = EXCLUDED.left_stop,
			right_stop = EXCLUDED.right_stop,
			table_path = EXCLUDED.table_path,
			image_path = EXCLUDED.image_path
	`,
		pair.Address,
		ts,
		int64(snap.Record.ActiveBin),
		snap.Record.BinsSampled,
		snap.Record.BinsKept,
		snap.Record.LeftStop,
		snap.Record.RightStop,
		snap.Record.TablePath,
		snap.Record.ImagePath,
	)
	for _, row := range snap.Chart.Table.Rows {
		batch.Queue(`
			INSERT INTO lb_snapshot_bins (
				pair_address, snapshot_ts, bin_id, reserve_x, reserve_y, bin_price, reserve_x_in_y
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (pair_address, snapshot_ts, bin_id)
			DO UPDATE SET
				reserve_x = EXCLUDED.reserve_x,
				reserve_y = EXCLUDED.reserve_y,
				bin_price = EXCLUDED.bin_price,
				reserve_x_in_y = EXCLUDED.reserve_x_in_y
		`,
			pair.Address,
			ts,
			int64(row.BinID),
			row.ReserveX,
			row.ReserveY,
			row.BinPrice,
			row.ReserveXInY,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("exec snapshot statement %d: %w", i, err)
		}
	}
	if err = br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot timestamp for a pair.
func (s *Store) LatestSnapshot(ctx context.Context, pairAddress string) (time.Time, bool, error) {
	if pairAddress == "" {
		return time.Time{}, false, fmt.Errorf("pair address required")
	}
	var ts time.Time
	row := s.pool.QueryRow(ctx, `SELECT max(snapshot_ts) FROM lb_snapshots WHERE pair_address=$1 HAVING count(*) > 0`, pairAddress)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return ts, true, nil
}
