package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Column names of the match CSV.
const (
	ColWhiteElo        = "WhiteElo"
	ColBlackElo        = "BlackElo"
	ColWhiteRatingDiff = "WhiteRatingDiff"
	ColOpening         = "Opening"
	ColECO             = "ECO"
	ColEvent           = "Event"
	ColTimeControl     = "TimeControl"
	ColResult          = "Result"
	ColMoves           = "Moves"
)

var requiredColumns = []string{
	ColWhiteElo,
	ColWhiteRatingDiff,
	ColOpening,
	ColTimeControl,
	ColResult,
	ColMoves,
}

// LoadStats counts what happened to each data row.
type LoadStats struct {
	Rows    int
	Kept    int
	Skipped int
}

// LoadFile reads a match CSV from path.
func LoadFile(path string, maxRows int) ([]Match, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, err
	}
	defer f.Close()

	ms, st, err := Load(f, maxRows)
	if err != nil {
		return nil, st, fmt.Errorf("%s: %w", path, err)
	}
	return ms, st, nil
}

// Load reads a match CSV with a header row. Rows whose numeric cells do not
// parse are skipped. maxRows <= 0 reads everything.
func Load(r io.Reader, maxRows int) ([]Match, LoadStats, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var st LoadStats
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, st, ErrNoRows
	}
	if err != nil {
		return nil, st, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[h] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, st, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Match
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, st, fmt.Errorf("line %d: %w", line, err)
		}
		st.Rows++

		m, err := parseRow(rec, cell)
		if err != nil {
			st.Skipped++
			slog.Debug("skip row", "line", line, "err", err)
			continue
		}
		out = append(out, m)
		st.Kept++
		if maxRows > 0 && len(out) >= maxRows {
			break
		}
	}
	if len(out) == 0 {
		return nil, st, ErrNoRows
	}
	return out, st, nil
}

func parseRow(rec []string, cell func([]string, string) string) (Match, error) {
	m := Match{
		Opening:     cell(rec, ColOpening),
		ECO:         cell(rec, ColECO),
		Event:       cell(rec, ColEvent),
		TimeControl: cell(rec, ColTimeControl),
		Result:      cell(rec, ColResult),
		Moves:       cell(rec, ColMoves),
	}
	var err error
	if m.WhiteElo, err = parseFloat(ColWhiteElo, cell(rec, ColWhiteElo)); err != nil {
		return m, err
	}
	if m.WhiteRatingDiff, err = parseFloat(ColWhiteRatingDiff, cell(rec, ColWhiteRatingDiff)); err != nil {
		return m, err
	}
	if s := cell(rec, ColBlackElo); s != "" {
		if m.BlackElo, err = parseFloat(ColBlackElo, s); err != nil {
			return m, err
		}
	}
	if _, _, err := ParseTimeControl(m.TimeControl); err != nil {
		return m, err
	}
	return m, nil
}

func parseFloat(col, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", col, err)
	}
	return v, nil
}
