package planning

import "github.com/pkg/errors"

var (
	ErrMapParse            = errors.New("malformed obstacle map")
	ErrNoSkeletonReachable = errors.New("no skeleton cell reachable")
	ErrNoPathFound         = errors.New("no path found")
)
