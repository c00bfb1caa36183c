// Package markov implements a second-order Markov chain over
// whitespace-delimited tokens, trained incrementally from chat messages.
//
// A Chain predicts the next token from the pair of tokens before it. It
// also keeps a reverse index from normalized tokens to the contexts that
// end with them, so generation can start from a chosen seed word without a
// full table scan. Training updates are exactly reversible, which lets an
// aggregate chain forget one user's contribution.
//
// A Chain is a plain in-memory value: callers load it from storage, apply
// training or generation against the copy, and write it back. It provides
// no locking of its own.
package markov

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hearsaybot/hearsay/internal/textutil"
)

// context is the ordered pair of tokens used to predict the next one. Both
// components are stored field-encoded and whitespace-free; the empty token
// marks message boundaries and is never encoded.
type context struct {
	first  string
	second string
}

// startContext opens every message.
var startContext = context{}

func (c context) key() string {
	return c.first + " " + c.second
}

// terminal reports the end-of-message state: the walk has consumed the
// boundary marker on a non-initial context.
func (c context) terminal() bool {
	return c.second == "" && c.first != ""
}

func parseContextKey(key string) context {
	first, second, ok := strings.Cut(key, " ")
	if !ok {
		panic(fmt.Sprintf("markov: malformed context key %q", key))
	}
	return context{first: first, second: second}
}

// Chain is the trained model for one owner. The context table and the seed
// index are two views of the same data; every mutation goes through add
// and remove so they cannot drift apart.
type Chain struct {
	// contexts maps a context key to the frequency distribution of its
	// successor tokens. Stored distributions are never empty.
	contexts map[string]frequency

	// seeds maps a normalized token to the keys of every context whose
	// second component normalizes to it.
	seeds map[string]map[string]bool
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{
		contexts: make(map[string]frequency),
		seeds:    make(map[string]map[string]bool),
	}
}

// Empty reports whether the chain holds no trained contexts.
func (c *Chain) Empty() bool {
	return len(c.contexts) == 0
}

// Contexts returns the number of trained contexts.
func (c *Chain) Contexts() int {
	return len(c.contexts)
}

// Transitions returns the total trained transition count.
func (c *Chain) Transitions() Counter {
	var sum Counter
	for _, dist := range c.contexts {
		sum += dist.total()
	}
	return sum
}

// Equal reports whether two chains hold identical tables and indexes.
func (c *Chain) Equal(other *Chain) bool {
	return reflect.DeepEqual(c.contexts, other.contexts) &&
		reflect.DeepEqual(c.seeds, other.seeds)
}

// AddMessage splits text on whitespace and records every token transition,
// from the opening boundary pair through the two closing boundary windows.
// Input with no tokens is a no-op.
func (c *Chain) AddMessage(text string) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return
	}
	ctx := startContext
	for _, token := range tokens {
		c.add(ctx, token)
		ctx = context{first: ctx.second, second: EncodeField(token)}
	}
	// Two closing transitions, so a seeded walk that starts on the final
	// token of a message can still reach the terminal state.
	c.add(ctx, "")
	ctx = context{first: ctx.second, second: ""}
	c.add(ctx, "")
}

// RemoveMessage reverses a previous AddMessage of the same text by
// replaying its windows against remove.
func (c *Chain) RemoveMessage(text string) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return
	}
	ctx := startContext
	for _, token := range tokens {
		c.remove(ctx, token, 1)
		ctx = context{first: ctx.second, second: EncodeField(token)}
	}
	c.remove(ctx, "", 1)
	ctx = context{first: ctx.second, second: ""}
	c.remove(ctx, "", 1)
}

// Subtract removes every transition recorded in other, at its full count.
// Subtracting a chain from an aggregate it was previously trained into
// leaves the aggregate exactly as if that contribution never happened.
func (c *Chain) Subtract(other *Chain) {
	for key, dist := range other.contexts {
		ctx := parseContextKey(key)
		for successor, count := range dist {
			c.remove(ctx, DecodeField(successor), count)
		}
	}
}

// add records one transition and indexes the context under each non-empty
// normalization of its raw second token.
func (c *Chain) add(ctx context, successor string) {
	key := ctx.key()
	dist := c.contexts[key]
	if dist == nil {
		dist = make(frequency)
		c.contexts[key] = dist
	}
	dist.increment(EncodeField(successor))

	for _, norm := range textutil.Normalizations(DecodeField(ctx.second)) {
		set := c.seeds[norm]
		if set == nil {
			set = make(map[string]bool)
			c.seeds[norm] = set
		}
		set[key] = true
	}
}

// remove undoes count occurrences of a transition. When the context's
// distribution empties, the context is dropped from the table and from
// every seed index entry that held it, and entries emptied that way are
// deleted too.
func (c *Chain) remove(ctx context, successor string, count Counter) {
	key := ctx.key()
	dist, ok := c.contexts[key]
	if !ok {
		return
	}
	dist.decrement(EncodeField(successor), count)
	if len(dist) > 0 {
		return
	}
	delete(c.contexts, key)
	for _, norm := range textutil.Normalizations(DecodeField(ctx.second)) {
		set := c.seeds[norm]
		delete(set, key)
		if len(set) == 0 {
			delete(c.seeds, norm)
		}
	}
}

// chainDoc is the serialized form of a Chain. Map keys are stored
// field-encoded, which keeps the "$" namespace free for metadata like the
// version tag.
type chainDoc struct {
	Version  int                           `json:"$v"`
	Contexts map[string]map[string]Counter `json:"contexts"`
	Seeds    map[string][]string           `json:"seeds"`
}

const chainDocVersion = 1

// MarshalJSON implements json.Marshaler. Seed context keys are sorted so
// equal chains serialize to equal bytes.
func (c *Chain) MarshalJSON() ([]byte, error) {
	doc := chainDoc{
		Version:  chainDocVersion,
		Contexts: make(map[string]map[string]Counter, len(c.contexts)),
		Seeds:    make(map[string][]string, len(c.seeds)),
	}
	for key, dist := range c.contexts {
		doc.Contexts[key] = dist
	}
	for norm, set := range c.seeds {
		keys := make([]string, 0, len(set))
		for key := range set {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		doc.Seeds[norm] = keys
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var doc chainDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	c.contexts = make(map[string]frequency, len(doc.Contexts))
	for key, dist := range doc.Contexts {
		c.contexts[key] = dist
	}
	c.seeds = make(map[string]map[string]bool, len(doc.Seeds))
	for norm, keys := range doc.Seeds {
		set := make(map[string]bool, len(keys))
		for _, key := range keys {
			set[key] = true
		}
		c.seeds[norm] = set
	}
	return nil
}
