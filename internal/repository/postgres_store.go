package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"CurveDash/internal/domain/models"
	domrepo "CurveDash/internal/domain/repository"
)

const upsertPacketSQL = `
	INSERT INTO market_data (source, ticker, ts, value, unit, metadata, raw)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (source, ticker, ts) DO UPDATE SET
		value = EXCLUDED.value,
		unit = EXCLUDED.unit,
		metadata = EXCLUDED.metadata,
		raw = EXCLUDED.raw
`

// PostgresPacketStore implements PacketStore on Postgres. Identity is the
// unique index on (source, ticker, ts); conflicting writes are serialized by
// the upsert, not by application locks.
type PostgresPacketStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPacketStore creates the Postgres packet store.
func NewPostgresPacketStore(pool *pgxpool.Pool) domrepo.PacketStore {
	return &PostgresPacketStore{pool: pool}
}

func (s *PostgresPacketStore) Upsert(ctx context.Context, p *models.DataPacket) error {
	meta, raw, err := encodePayloads(p)
	if err != nil {
		return fmt.Errorf("encode packet: %w", err)
	}
	_, err = s.pool.Exec(ctx, upsertPacketSQL,
		p.Source, p.Ticker, p.Timestamp.UTC(), p.Value, p.Unit, meta, raw)
	if err != nil {
		return models.NewStorageError("upsert", err)
	}
	return nil
}

// BulkUpsert queues all upserts into one pgx batch inside a single
// transaction. Any failure rolls the whole batch back.
func (s *PostgresPacketStore) BulkUpsert(ctx context.Context, packets []*models.DataPacket) (int, error) {
	if len(packets) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range packets {
		meta, raw, err := encodePayloads(p)
		if err != nil {
			return 0, fmt.Errorf("encode packet %s: %w", p.Ticker, err)
		}
		batch.Queue(upsertPacketSQL,
			p.Source, p.Ticker, p.Timestamp.UTC(), p.Value, p.Unit, meta, raw)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, models.NewStorageError("begin", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for range packets {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, models.NewStorageError("bulk upsert", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, models.NewStorageError("bulk upsert", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, models.NewStorageError("commit", err)
	}
	return len(packets), nil
}

func (s *PostgresPacketStore) QueryRange(ctx context.Context, ticker string, start, end time.Time, source string) ([]*models.DataPacket, error) {
	q := `
		SELECT source, ticker, ts, value, unit, metadata, raw, created_at
		FROM market_data
		WHERE ticker = $1 AND ts >= $2 AND ts <= $3
	`
	args := []interface{}{ticker, start.UTC(), end.UTC()}
	if source != "" {
		q += " AND source = $4"
		args = append(args, source)
	}
	q += " ORDER BY ts ASC, source ASC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, models.NewStorageError("query range", err)
	}
	defer rows.Close()

	packets := make([]*models.DataPacket, 0)
	for rows.Next() {
		p, err := scanPacket(rows)
		if err != nil {
			return nil, models.NewStorageError("scan", err)
		}
		packets = append(packets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("query range", err)
	}
	return packets, nil
}

func (s *PostgresPacketStore) Latest(ctx context.Context, ticker, source string) (*models.DataPacket, error) {
	q := `
		SELECT source, ticker, ts, value, unit, metadata, raw, created_at
		FROM market_data
		WHERE ticker = $1
	`
	args := []interface{}{ticker}
	if source != "" {
		q += " AND source = $2"
		args = append(args, source)
	}
	q += " ORDER BY ts DESC LIMIT 1"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, models.NewStorageError("latest", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, models.NewStorageError("latest", err)
		}
		return nil, nil
	}
	p, err := scanPacket(rows)
	if err != nil {
		return nil, models.NewStorageError("scan", err)
	}
	return p, nil
}

func (s *PostgresPacketStore) ListTickers(ctx context.Context, source string) ([]string, error) {
	q := "SELECT DISTINCT ticker FROM market_data"
	args := []interface{}{}
	if source != "" {
		q += " WHERE source = $1"
		args = append(args, source)
	}
	q += " ORDER BY ticker"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, models.NewStorageError("list tickers", err)
	}
	defer rows.Close()

	tickers := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, models.NewStorageError("scan", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("list tickers", err)
	}
	return tickers, nil
}

func (s *PostgresPacketStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func encodePayloads(p *models.DataPacket) ([]byte, []byte, error) {
	meta := p.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return nil, nil, err
	}
	raw := p.Raw
	if raw == nil {
		raw = map[string]interface{}{}
	}
	rb, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, err
	}
	return mb, rb, nil
}

func scanPacket(rows pgx.Rows) (*models.DataPacket, error) {
	var (
		p    models.DataPacket
		meta []byte
		raw  []byte
	)
	if err := rows.Scan(&p.Source, &p.Ticker, &p.Timestamp, &p.Value, &p.Unit, &meta, &raw, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, err
		}
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Raw); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
