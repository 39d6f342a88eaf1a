package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis-research/internal/contracts"
)

// CSV layouts recognized by LoadCSV (header row)
const (
	LayoutValues    = "date,asset,field,value"
	LayoutLiquidity = "date,asset,liquid"
)

const loadBatchSize = 5000

// LoadStats summarizes one CSV load
type LoadStats struct {
	Layout  string
	Rows    int
	Skipped int // empty values
}

// LoadCSV streams a values or liquidity CSV into sink in batches.
// The header row selects the layout. Empty values are skipped, "NaN" is stored as NaN.
func LoadCSV(ctx context.Context, r io.Reader, sink Sink) (*LoadStats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	layout := strings.ToLower(strings.Join(header, ","))

	stats := &LoadStats{Layout: layout}
	switch layout {
	case LayoutValues:
		err = loadValues(ctx, reader, sink, stats)
	case LayoutLiquidity:
		err = loadLiquidity(ctx, reader, sink, stats)
	default:
		return nil, fmt.Errorf("unknown csv header %q (want %q or %q)", layout, LayoutValues, LayoutLiquidity)
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func loadValues(ctx context.Context, reader *csv.Reader, sink Sink, stats *LoadStats) error {
	batch := make([]Observation, 0, loadBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.SaveValues(ctx, batch); err != nil {
			return fmt.Errorf("save values: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(rec[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		field, err := contracts.ParseField(rec[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		raw := strings.TrimSpace(rec[3])
		if raw == "" {
			stats.Skipped++
			continue
		}
		value := math.NaN()
		if !strings.EqualFold(raw, "nan") {
			if value, err = strconv.ParseFloat(raw, 64); err != nil {
				return fmt.Errorf("line %d: invalid value %q: %w", line, raw, err)
			}
		}

		batch = append(batch, Observation{Date: date, Asset: strings.TrimSpace(rec[1]), Field: field, Value: value})
		stats.Rows++
		if len(batch) == loadBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func loadLiquidity(ctx context.Context, reader *csv.Reader, sink Sink, stats *LoadStats) error {
	batch := make([]LiquidFlag, 0, loadBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.SaveLiquidity(ctx, batch); err != nil {
			return fmt.Errorf("save liquidity: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(rec[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		liquid, err := strconv.ParseBool(strings.TrimSpace(rec[2]))
		if err != nil {
			return fmt.Errorf("line %d: invalid liquid flag %q: %w", line, rec[2], err)
		}

		batch = append(batch, LiquidFlag{Date: date, Asset: strings.TrimSpace(rec[1]), Liquid: liquid})
		stats.Rows++
		if len(batch) == loadBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
