package types

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out leaf identifiers. Injected into builders and the
// document importer; there is no package-level counter.
type IDGenerator interface {
	Next() NodeID
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() NodeID

func (f IDGeneratorFunc) Next() NodeID { return f() }

// DefaultIDPrefix is the prefix of incremental ids.
const DefaultIDPrefix = "exp_"

// IncrementalIDs yields prefix0, prefix1, ... Safe for concurrent use.
type IncrementalIDs struct {
	prefix string
	next   atomic.Uint64
}

// NewIncrementalIDs creates a generator starting at zero.
func NewIncrementalIDs(prefix string) *IncrementalIDs {
	return &IncrementalIDs{prefix: prefix}
}

// Next returns the next identifier.
func (g *IncrementalIDs) Next() NodeID {
	n := g.next.Add(1) - 1
	return NodeID(g.prefix + strconv.FormatUint(n, 10))
}

// UUIDGenerator yields UUIDv7 identifiers, optionally prefixed.
// Time-ordered ids keep leaves created together adjacent when sorted.
type UUIDGenerator struct {
	Prefix string
}

// Next panics on clock regression (uuid.Must); acceptable for ID generation.
func (g UUIDGenerator) Next() NodeID {
	return NodeID(g.Prefix + uuid.Must(uuid.NewV7()).String())
}

// NewIDGenerator selects a generator by strategy name ("incremental" or "uuid").
func NewIDGenerator(strategy, prefix string) (IDGenerator, error) {
	switch strategy {
	case "", "incremental":
		if prefix == "" {
			prefix = DefaultIDPrefix
		}
		return NewIncrementalIDs(prefix), nil
	case "uuid":
		return UUIDGenerator{Prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q (want incremental or uuid)", strategy)
	}
}

// NodeIDTime extracts the timestamp embedded in a UUIDv7 leaf id.
// Returns zero time for ids that are not UUIDs; caller should check IsZero().
func NodeIDTime(id NodeID, prefix string) time.Time {
	s := string(id)
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return time.Time{}
	}
	u, err := uuid.Parse(s[len(prefix):])
	if err != nil || u.Version() != 7 {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
