package markov

import (
	"fmt"
	"strconv"
	"strings"
)

// Comparison is a length-requirement operator.
type Comparison string

// Supported comparison operators.
const (
	Less      Comparison = "<"
	LessEq    Comparison = "<="
	Equal     Comparison = "="
	Greater   Comparison = ">"
	GreaterEq Comparison = ">="
)

// LengthRequirement constrains the number of tokens a generated sequence
// may contain.
type LengthRequirement struct {
	Op    Comparison
	Bound int
}

// ParseLengthRequirement parses requirements like "<=5" or ">3". A bare
// number means exactly that many tokens.
func ParseLengthRequirement(s string) (*LengthRequirement, error) {
	op := Equal
	rest := s
	// Two-character operators first so "<=" is not read as "<" then "=5".
	for _, c := range []Comparison{LessEq, GreaterEq, Less, Greater, Equal} {
		if strings.HasPrefix(s, string(c)) {
			op = c
			rest = s[len(c):]
			break
		}
	}
	bound, err := strconv.Atoi(rest)
	if err != nil || bound < 0 {
		return nil, fmt.Errorf("invalid length requirement %q", s)
	}
	return &LengthRequirement{Op: op, Bound: bound}, nil
}

func (r *LengthRequirement) String() string {
	return string(r.Op) + strconv.Itoa(r.Bound)
}

// valid reports whether at least one achievable sequence length satisfies
// the requirement. Generated sequences always contain at least one token.
func (r *LengthRequirement) valid() bool {
	switch r.Op {
	case Less, GreaterEq:
		return r.Bound > 1
	case LessEq, Equal, Greater:
		return r.Bound > 0
	}
	return false
}

// satisfied reports whether a finished sequence of n tokens meets the
// requirement.
func (r *LengthRequirement) satisfied(n int) bool {
	switch r.Op {
	case Less:
		return n < r.Bound
	case LessEq:
		return n <= r.Bound
	case Equal:
		return n == r.Bound
	case Greater:
		return n > r.Bound
	case GreaterEq:
		return n >= r.Bound
	}
	return false
}

// exceeded reports whether n emitted tokens already rule the requirement
// out no matter how the walk continues. Expansion only ever adds tokens,
// so a passed upper bound kills the branch.
func (r *LengthRequirement) exceeded(n int) bool {
	switch r.Op {
	case Less:
		return n >= r.Bound
	case LessEq, Equal:
		return n > r.Bound
	}
	return false
}
