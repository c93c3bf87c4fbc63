package planning

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tiiuae/motion_planning/internal/types"
)

// Obstacle is an axis aligned box given by its centre and half extents.
type Obstacle struct {
	North     float64
	East      float64
	Alt       float64
	HalfNorth float64
	HalfEast  float64
	HalfAlt   float64
}

// Map is the parsed obstacle source: a geodetic home and the obstacles
// around it in local coordinates.
type Map struct {
	Home      types.GlobalPosition
	Obstacles []Obstacle
}

func LoadColliders(filename string) (*Map, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.WithMessagef(ErrMapParse, "%v", err)
	}
	defer f.Close()

	return ReadColliders(f)
}

// ReadColliders parses
//
//	lat0 37.792480, lon0 -122.397450
//	posX,posY,posZ,halfSizeX,halfSizeY,halfSizeZ
//	-310.2389,-439.2315,85.5,5,5,85.5
//	...
func ReadColliders(r io.Reader) (*Map, error) {
	scanner := bufio.NewScanner(r)
	line := 0

	if !scanner.Scan() {
		return nil, errors.WithMessage(ErrMapParse, "missing home header")
	}
	line++
	home, err := parseHome(scanner.Text())
	if err != nil {
		return nil, errors.WithMessagef(err, "line %d", line)
	}

	// column names
	if !scanner.Scan() {
		return &Map{Home: home}, scanner.Err()
	}
	line++

	obstacles := make([]Obstacle, 0)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 6 {
			return nil, errors.WithMessagef(ErrMapParse, "line %d: expected 6 fields, got %d", line, len(fields))
		}
		var v [6]float64
		for i, f := range fields {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, errors.WithMessagef(ErrMapParse, "line %d: %v", line, err)
			}
		}
		obstacles = append(obstacles, Obstacle{v[0], v[1], v[2], v[3], v[4], v[5]})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithMessagef(ErrMapParse, "line %d: %v", line, err)
	}

	return &Map{Home: home, Obstacles: obstacles}, nil
}

func parseHome(header string) (types.GlobalPosition, error) {
	var home types.GlobalPosition
	found := 0
	for _, part := range strings.Split(header, ",") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return home, errors.WithMessagef(ErrMapParse, "bad home field %q", part)
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return home, errors.WithMessagef(ErrMapParse, "bad home field %q", part)
		}
		switch fields[0] {
		case "lat0":
			home.Lat = value
			found++
		case "lon0":
			home.Lon = value
			found++
		default:
			return home, errors.WithMessagef(ErrMapParse, "unknown home field %q", fields[0])
		}
	}
	if found != 2 {
		return home, errors.WithMessage(ErrMapParse, "home header needs lat0 and lon0")
	}

	return home, nil
}
