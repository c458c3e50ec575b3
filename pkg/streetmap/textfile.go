package streetmap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"delivery_router/pkg/geo"
)

// ErrMalformed is returned when a map file does not follow the text format.
var ErrMalformed = errors.New("malformed map data")

// Load reads streets in the text map format and adds each of them as a
// two-way street. The format is a sequence of blocks:
//
//	<street name>
//	<segment count>
//	<lat1> <lng1> <lat2> <lng2>   (one line per segment)
func (m *StreetMap) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0

	next := func() (string, bool) {
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text != "" {
				return text, true
			}
		}
		return "", false
	}

	for {
		name, ok := next()
		if !ok {
			break
		}

		countText, ok := next()
		if !ok {
			return fmt.Errorf("line %d: street %q: missing segment count: %w", line, name, ErrMalformed)
		}
		count, err := strconv.Atoi(countText)
		if err != nil || count < 0 {
			return fmt.Errorf("line %d: street %q: bad segment count %q: %w", line, name, countText, ErrMalformed)
		}

		for i := 0; i < count; i++ {
			text, ok := next()
			if !ok {
				return fmt.Errorf("line %d: street %q: expected %d segments, got %d: %w", line, name, count, i, ErrMalformed)
			}
			seg, err := parseSegment(text, name)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			m.AddStreet(seg)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read map data: %w", err)
	}
	return nil
}

func parseSegment(text, name string) (Segment, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 {
		return Segment{}, fmt.Errorf("segment %q: want 4 numbers, got %d: %w", text, len(fields), ErrMalformed)
	}
	var v [4]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Segment{}, fmt.Errorf("segment %q: %v: %w", text, err, ErrMalformed)
		}
		v[i] = x
	}
	seg := Segment{
		Start: geo.Coord{Lat: v[0], Lng: v[1]},
		End:   geo.Coord{Lat: v[2], Lng: v[3]},
		Name:  name,
	}
	if !seg.Start.Valid() || !seg.End.Valid() {
		return Segment{}, fmt.Errorf("segment %q: coordinates out of range: %w", text, ErrMalformed)
	}
	return seg, nil
}

// LoadFile builds a street map from a text map file.
func LoadFile(path string) (*StreetMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map data: %w", err)
	}
	defer f.Close()

	m := New()
	if err := m.Load(f); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Write serializes the map in the text format. Consecutive segments of the
// same street share a block. The text format has no notion of direction, so
// one-way segments are written as ordinary streets.
func (m *StreetMap) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	all := make([]Segment, 0, len(m.streets)+len(m.oneWay))
	all = append(all, m.streets...)
	all = append(all, m.oneWay...)

	for i := 0; i < len(all); {
		j := i + 1
		for j < len(all) && all[j].Name == all[i].Name {
			j++
		}
		fmt.Fprintf(bw, "%s\n%d\n", all[i].Name, j-i)
		for _, s := range all[i:j] {
			fmt.Fprintf(bw, "%s %s %s %s\n",
				formatDeg(s.Start.Lat), formatDeg(s.Start.Lng),
				formatDeg(s.End.Lat), formatDeg(s.End.Lng))
		}
		i = j
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write map data: %w", err)
	}
	return nil
}

// WriteFile writes the map to path atomically via a temp file and rename.
func (m *StreetMap) WriteFile(path string) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	if err := m.Write(f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func formatDeg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
