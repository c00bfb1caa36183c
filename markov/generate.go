package markov

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hearsaybot/hearsay/internal/textutil"
)

// GenerateOptions control a single generation.
type GenerateOptions struct {
	// Seed biases where generation starts. Empty means an unseeded walk
	// from the message-start context.
	Seed string

	// Length constrains the token count of the result.
	Length *LengthRequirement

	// Rand supplies randomness. Nil uses a time-seeded source.
	Rand *rand.Rand

	// MaxSteps caps the number of search states visited before the search
	// gives up with ErrCannotMeetLengthRequirement. Zero means unbounded.
	MaxSteps int
}

// Generate produces a token sequence from the chain.
//
// Starting contexts are drawn weighted-without-replacement, so the most
// continued context is tried first but every candidate is eventually
// attempted. Each start runs a depth-first search whose successors are
// likewise drawn without replacement; a branch that can provably no longer
// satisfy the length requirement fails without expansion. The ordering is
// a heuristic that lets unconstrained generation resolve on the first
// draw; the exhaustive backtracking behind it is what makes constrained
// generation correct.
func (c *Chain) Generate(opts GenerateOptions) ([]string, error) {
	if c.Empty() {
		return nil, ErrEmpty
	}
	if opts.Length != nil && !opts.Length.valid() {
		return nil, ErrLengthRequirementInvalid
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	candidates, err := c.startCandidates(opts.Seed)
	if err != nil {
		return nil, err
	}

	s := &search{
		chain:   c,
		rng:     rng,
		length:  opts.Length,
		bounded: opts.MaxSteps > 0,
		max:     opts.MaxSteps,
	}
	for len(candidates) > 0 {
		key := candidates.draw(rng)
		delete(candidates, key)
		ctx := parseContextKey(key)
		emitted := 0
		if ctx.second != "" {
			emitted = 1
		}
		if sequence, ok := s.run(ctx, emitted); ok {
			for i, token := range sequence {
				sequence[i] = DecodeField(token)
			}
			return sequence, nil
		}
	}
	return nil, ErrCannotMeetLengthRequirement
}

// startCandidates builds the multiset of starting contexts, each weighted
// by how often it has been continued.
func (c *Chain) startCandidates(seed string) (frequency, error) {
	if seed == "" {
		return frequency{startContext.key(): 1}, nil
	}
	lower := textutil.Normalize(seed)
	set := c.seeds[lower]
	if len(set) == 0 {
		set = c.seeds[textutil.TrimDecorations(lower)]
	}
	if len(set) == 0 {
		return nil, ErrNoSuchSeed
	}
	candidates := make(frequency, len(set))
	for key := range set {
		dist, ok := c.contexts[key]
		if !ok {
			panic(fmt.Sprintf("markov: context %q indexed but not in table", key))
		}
		candidates[key] = dist.total()
	}
	return candidates, nil
}

type search struct {
	chain   *Chain
	rng     *rand.Rand
	length  *LengthRequirement
	bounded bool
	max     int
	steps   int
}

// run performs a depth-first search from ctx, where emitted counts the
// real tokens committed to the current path so far. On success it returns
// the still-encoded tokens emitted from ctx onward.
func (s *search) run(ctx context, emitted int) ([]string, bool) {
	if s.bounded {
		s.steps++
		if s.steps > s.max {
			return nil, false
		}
	}
	if ctx.terminal() {
		return nil, s.length == nil || s.length.satisfied(emitted)
	}
	if s.length != nil && s.length.exceeded(emitted) {
		return nil, false
	}
	dist, ok := s.chain.contexts[ctx.key()]
	if !ok {
		panic(fmt.Sprintf("markov: context %q reached in walk but not in table", ctx.key()))
	}
	remaining := dist.clone()
	for len(remaining) > 0 {
		successor := remaining.draw(s.rng)
		delete(remaining, successor)
		next := context{first: ctx.second, second: successor}
		nextEmitted := emitted
		if successor != "" {
			nextEmitted++
		}
		if rest, ok := s.run(next, nextEmitted); ok {
			if ctx.second != "" {
				return append([]string{ctx.second}, rest...), true
			}
			return rest, true
		}
	}
	return nil, false
}

// Words joins a generated sequence back into message text.
func Words(sequence []string) string {
	return strings.Join(sequence, " ")
}
