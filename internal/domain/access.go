package domain

import "fmt"

// AccessKind the broker's "acc" field
type AccessKind int

const (
	Subscribe AccessKind = 1
	Publish   AccessKind = 2
)

func (a AccessKind) String() string {
	switch a {
	case Subscribe:
		return "subscribe"
	case Publish:
		return "publish"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(a))
	}
}

// Valid reports whether a is one of the known kinds
func (a AccessKind) Valid() bool {
	return a == Subscribe || a == Publish
}

// ParseAccessKind converts the integer acc value sent by the broker
func ParseAccessKind(acc int) (AccessKind, error) {
	a := AccessKind(acc)
	if !a.Valid() {
		return 0, fmt.Errorf("invalid access kind: %d", acc)
	}
	return a, nil
}

// Decision outcome of an ACL check
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Allowed is true only for Allow
func (d Decision) Allowed() bool {
	return d == Allow
}
