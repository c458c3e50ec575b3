// Package delivery defines delivery requests and reads the deliveries file.
package delivery

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

// ErrMalformed is returned when a deliveries file does not follow the format.
var ErrMalformed = errors.New("malformed deliveries data")

// Request is one stop of a tour: where to go and what to drop off there.
type Request struct {
	Location geo.Coord `json:"location"`
	Item     string    `json:"item"`
}

// ParseRequests reads the depot and the delivery requests. The first
// non-blank line is the depot as "lat lng"; every following line is
// "lat lng:item".
func ParseRequests(r io.Reader) (geo.Coord, []Request, error) {
	sc := bufio.NewScanner(r)
	line := 0
	haveDepot := false
	var depot geo.Coord
	var reqs []Request

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		if !haveDepot {
			c, err := parseCoord(text)
			if err != nil {
				return geo.Coord{}, nil, fmt.Errorf("line %d: depot: %w", line, err)
			}
			depot, haveDepot = c, true
			continue
		}

		where, item, ok := strings.Cut(text, ":")
		if !ok {
			return geo.Coord{}, nil, fmt.Errorf("line %d: %q: missing ':' before item: %w", line, text, ErrMalformed)
		}
		c, err := parseCoord(where)
		if err != nil {
			return geo.Coord{}, nil, fmt.Errorf("line %d: %w", line, err)
		}
		reqs = append(reqs, Request{Location: c, Item: strings.TrimSpace(item)})
	}
	if err := sc.Err(); err != nil {
		return geo.Coord{}, nil, fmt.Errorf("read deliveries: %w", err)
	}
	if !haveDepot {
		return geo.Coord{}, nil, fmt.Errorf("no depot line: %w", ErrMalformed)
	}
	return depot, reqs, nil
}

// LoadFile reads a deliveries file from disk.
func LoadFile(path string) (geo.Coord, []Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return geo.Coord{}, nil, fmt.Errorf("open deliveries: %w", err)
	}
	defer f.Close()

	depot, reqs, err := ParseRequests(f)
	if err != nil {
		return geo.Coord{}, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return depot, reqs, nil
}

func parseCoord(text string) (geo.Coord, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return geo.Coord{}, fmt.Errorf("coordinate %q: want 2 numbers, got %d: %w", text, len(fields), ErrMalformed)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geo.Coord{}, fmt.Errorf("coordinate %q: %v: %w", text, err, ErrMalformed)
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geo.Coord{}, fmt.Errorf("coordinate %q: %v: %w", text, err, ErrMalformed)
	}
	c := geo.Coord{Lat: lat, Lng: lng}
	if !c.Valid() {
		return geo.Coord{}, fmt.Errorf("coordinate %q: out of range: %w", text, ErrMalformed)
	}
	return c, nil
}
