package curveseries

import (
	"time"

	"CurveDash/internal/domain/models"
)

// Normalizer converts raw bridge rows into canonical packets. Column layout is
// not stable between calls, so each row is scanned positionally: the first
// numeric cell becomes the value and the first parseable date-like cell
// becomes the timestamp.
type Normalizer struct {
	source string
}

// NewNormalizer creates a normalizer stamping packets with the given source.
func NewNormalizer(source string) *Normalizer {
	return &Normalizer{source: source}
}

// Normalize maps rows to packets for ticker. Rows without a parseable
// timestamp are dropped; the count of dropped rows is returned alongside the
// packets. Rows without a numeric cell keep value zero.
func (n *Normalizer) Normalize(ticker string, rows []models.RawRow) ([]*models.DataPacket, int) {
	packets := make([]*models.DataPacket, 0, len(rows))
	dropped := 0

	for _, row := range rows {
		p, ok := n.normalizeRow(ticker, row)
		if !ok {
			dropped++
			continue
		}
		packets = append(packets, p)
	}
	return packets, dropped
}

func (n *Normalizer) normalizeRow(ticker string, row models.RawRow) (*models.DataPacket, bool) {
	var (
		value    float64
		haveVal  bool
		ts       time.Time
		haveTime bool
	)

	for _, cell := range row {
		switch cell.Kind {
		case models.CellNumber:
			if !haveVal {
				value = cell.Number
				haveVal = true
			}
		case models.CellDateLike:
			if haveTime {
				continue
			}
			if t, ok := ParseRowDate(cell.Text); ok {
				ts = t
				haveTime = true
			}
		}
	}

	if !haveTime {
		return nil, false
	}

	return &models.DataPacket{
		Source:    n.source,
		Ticker:    ticker,
		Timestamp: ts,
		Value:     value,
		Unit:      models.DefaultUnit,
		Metadata:  map[string]interface{}{},
		Raw:       row.AsMap(),
	}, true
}
