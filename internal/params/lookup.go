package params

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/gocarina/gocsv"
)

// Key matches a class value, either exactly or within a range whose sides may
// be open, closed or unbounded.
type Key struct {
	Low, High             float64
	LowClosed, HighClosed bool
}

func (k Key) Match(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if v < k.Low || (v == k.Low && !k.LowClosed) {
		return false
	}
	if v > k.High || (v == k.High && !k.HighClosed) {
		return false
	}
	return true
}

type Row struct {
	Key   Key
	Value float64
}

// Table is an ordered lookup table. The first matching row wins.
type Table struct {
	Rows []Row
}

// Lookup returns the value of the first row matching v, or NaN.
func (t *Table) Lookup(v float64) float64 {
	for _, r := range t.Rows {
		if r.Key.Match(v) {
			return r.Value
		}
	}
	return math.NaN()
}

// Apply maps every cell of classes through the table.
func (t *Table) Apply(classes *raster.Grid) *raster.Grid {
	return classes.Map(t.Lookup)
}

// ParseKey parses an exact number or a range such as [1,5>, <,0] or <2,>.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}
	first, last := s[0], s[len(s)-1]
	if first != '[' && first != '<' {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Key{}, fmt.Errorf("invalid key %q", s)
		}
		return Key{Low: v, High: v, LowClosed: true, HighClosed: true}, nil
	}
	if len(s) < 3 || (last != ']' && last != '>') {
		return Key{}, fmt.Errorf("invalid range %q", s)
	}
	bounds := strings.Split(s[1:len(s)-1], ",")
	if len(bounds) != 2 {
		return Key{}, fmt.Errorf("invalid range %q", s)
	}

	k := Key{
		Low:        math.Inf(-1),
		High:       math.Inf(1),
		LowClosed:  first == '[',
		HighClosed: last == ']',
	}
	if lo := strings.TrimSpace(bounds[0]); lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return Key{}, fmt.Errorf("invalid range %q", s)
		}
		k.Low = v
	}
	if hi := strings.TrimSpace(bounds[1]); hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return Key{}, fmt.Errorf("invalid range %q", s)
		}
		k.High = v
	}
	if k.Low > k.High {
		return Key{}, fmt.Errorf("empty range %q", s)
	}
	return k, nil
}

// ParseTable reads a PCRaster style table of "key value" lines. Blank lines
// and lines starting with # are ignored.
func ParseTable(r io.Reader) (*Table, error) {
	t := &Table{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected key and value, got %q", line, text)
		}
		row, err := parseRow(fields[0], fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

type csvRow struct {
	Key   string `csv:"key"`
	Value string `csv:"value"`
}

// ParseCSVTable reads a table with a key,value header.
func ParseCSVTable(r io.Reader) (*Table, error) {
	var records []csvRow
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("failed to parse csv table: %w", err)
	}
	t := &Table{}
	for i, rec := range records {
		row, err := parseRow(rec.Key, rec.Value)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseRow(key, value string) (Row, error) {
	k, err := ParseKey(key)
	if err != nil {
		return Row{}, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return Row{}, fmt.Errorf("invalid value %q", value)
	}
	return Row{Key: k, Value: v}, nil
}

// LoadTable reads a lookup table from disk. Files ending in .csv are read as
// CSV, anything else as a PCRaster table.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	var t *Table
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		t, err = ParseCSVTable(f)
	} else {
		t, err = ParseTable(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LookupScalar applies the table at path to classes.
func LookupScalar(path string, classes *raster.Grid) (*raster.Grid, error) {
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return t.Apply(classes), nil
}
