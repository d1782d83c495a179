package acl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTopic an id segment is missing or not an integer
var ErrMalformedTopic = errors.New("malformed topic")

// Topic MQTT topic split into segments
type Topic []string

// ParseTopic splits raw on "/" and drops a leading empty segment, so
// "/hospital/1/data" and "hospital/1/data" are the same topic. Nothing else
// is normalized: "" parses to no segments, "/" to one empty segment.
func ParseTopic(raw string) Topic {
	segments := strings.Split(raw, "/")
	if len(segments) > 0 && segments[0] == "" {
		segments = segments[1:]
	}
	return Topic(segments)
}

func (t Topic) String() string {
	return strings.Join(t, "/")
}

// ID parses segment i as a base-10 id
func (t Topic) ID(i int) (int64, error) {
	if i < 0 || i >= len(t) {
		return 0, fmt.Errorf("%w: no segment %d in %q", ErrMalformedTopic, i, t.String())
	}
	id, err := strconv.ParseInt(t[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: segment %d of %q is not an id", ErrMalformedTopic, i, t.String())
	}
	return id, nil
}
