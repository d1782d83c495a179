package acl

import "strings"

// Pattern topic template, one token per segment:
//
//	literal      segment must be equal
//	{username}   segment must be the requesting username
//	{clientid}   segment must be the requesting client id
//
// An empty username or client id matches nothing.
//	{name}       any segment (ids are parsed by the rule's check)
//	+            any segment
//
// The number of tokens fixes the number of segments.
type Pattern []string

// ParsePattern splits s on "/"
func ParsePattern(s string) Pattern {
	return Pattern(strings.Split(s, "/"))
}

// Match reports whether t fits the pattern for the given identity
func (p Pattern) Match(t Topic, username, clientID string) bool {
	if len(p) != len(t) {
		return false
	}
	for i, tok := range p {
		seg := t[i]
		switch {
		case tok == "{username}":
			if username == "" || seg != username {
				return false
			}
		case tok == "{clientid}":
			if clientID == "" || seg != clientID {
				return false
			}
		case tok == "+" || isPlaceholder(tok):
		default:
			if seg != tok {
				return false
			}
		}
	}
	return true
}

func (p Pattern) String() string {
	return strings.Join(p, "/")
}

func isPlaceholder(tok string) bool {
	return len(tok) > 2 && tok[0] == '{' && tok[len(tok)-1] == '}'
}
