package markov

import "errors"

// Generation failure modes. Training is total over well-formed input and
// has no error cases of its own; a violated internal invariant panics
// instead of surfacing as one of these.
var (
	// ErrEmpty reports a generation attempt on a chain with no training
	// data.
	ErrEmpty = errors.New("markov: chain is empty")

	// ErrNoSuchSeed reports that the seed word is absent from the index
	// under both of its normalizations.
	ErrNoSuchSeed = errors.New("markov: no such seed")

	// ErrLengthRequirementInvalid reports an operator/bound combination
	// that no achievable sequence length can satisfy.
	ErrLengthRequirementInvalid = errors.New("markov: invalid length requirement")

	// ErrCannotMeetLengthRequirement reports that the search exhausted
	// every starting context without finding a satisfying sequence.
	ErrCannotMeetLengthRequirement = errors.New("markov: no sequence meets the length requirement")
)
