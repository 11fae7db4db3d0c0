package automaton

import "fmt"

// Default limits applied to zero Config fields.
const (
	DefaultMaxStates   = 100000
	DefaultMaxKeywords = 1 << 20
)

// Config bounds the automaton Build may produce. Zero fields take defaults.
type Config struct {
	MaxStates    int // total states, root included
	MaxKeywords  int // keyword slots addressable by output sets
	AlphabetSize int // symbols per state, 1..256
}

// DefaultConfig returns the default limits with a full byte alphabet.
func DefaultConfig() Config {
	return Config{
		MaxStates:    DefaultMaxStates,
		MaxKeywords:  DefaultMaxKeywords,
		AlphabetSize: MaxAlphabetSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxStates == 0 {
		c.MaxStates = d.MaxStates
	}
	if c.MaxKeywords == 0 {
		c.MaxKeywords = d.MaxKeywords
	}
	if c.AlphabetSize == 0 {
		c.AlphabetSize = d.AlphabetSize
	}
	return c
}

// Validate rejects limits that can never produce an automaton.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.MaxStates < 1 {
		return fmt.Errorf("%w: max states %d < 1", ErrInvalidConfig, c.MaxStates)
	}
	if c.MaxKeywords < 0 {
		return fmt.Errorf("%w: max keywords %d < 0", ErrInvalidConfig, c.MaxKeywords)
	}
	_, err := NewAlphabet(c.AlphabetSize)
	return err
}

// builder holds the growing tables. Nothing escapes it until Build succeeds.
type builder struct {
	cfg   Config
	size  int
	trans []int32
	fail  []int32
	out   []*OutputSet
}

func (b *builder) newState() (int32, error) {
	if len(b.fail) >= b.cfg.MaxStates {
		return 0, &CapacityError{Resource: "states", Limit: b.cfg.MaxStates, Requested: len(b.fail) + 1}
	}
	id := int32(len(b.fail))
	for i := 0; i < b.size; i++ {
		b.trans = append(b.trans, noEdge)
	}
	b.fail = append(b.fail, 0)
	b.out = append(b.out, nil)
	return id, nil
}

// Build constructs the automaton for keywords.
//
// Keyword i keeps index i in every Match, duplicates included. Empty keywords
// occupy an index but are never reported. Build returns a *CapacityError
// (errors.Is ErrCapacityExceeded) when the keyword set needs more states than
// cfg.MaxStates or has more than cfg.MaxKeywords entries; no automaton is
// returned in that case. The keyword slices are copied.
func Build(keywords [][]byte, cfg Config) (*Automaton, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if len(keywords) > cfg.MaxKeywords {
		return nil, &CapacityError{Resource: "keywords", Limit: cfg.MaxKeywords, Requested: len(keywords)}
	}
	alpha, _ := NewAlphabet(cfg.AlphabetSize)

	b := &builder{cfg: cfg, size: alpha.size}
	if _, err := b.newState(); err != nil {
		return nil, err
	}

	// 1. Trie insertion.
	kws := make([][]byte, len(keywords))
	for idx, kw := range keywords {
		kws[idx] = append([]byte(nil), kw...)
		s := int32(Root)
		for _, c := range kw {
			slot := int(s)*b.size + alpha.Symbol(c)
			next := b.trans[slot]
			if next == noEdge {
				var err error
				if next, err = b.newState(); err != nil {
					return nil, err
				}
				b.trans[slot] = next
			}
			s = next
		}
		if len(kw) == 0 {
			continue
		}
		if b.out[s] == nil {
			b.out[s] = NewOutputSet(len(keywords))
		}
		if err := b.out[s].Add(idx); err != nil {
			return nil, err
		}
	}

	// 2. Root goto completion.
	for sym := 0; sym < b.size; sym++ {
		if b.trans[sym] == noEdge {
			b.trans[sym] = Root
		}
	}

	// 3. Failure links, breadth first. Depth d is final before d+1 starts.
	queue := make([]int32, 0, len(b.fail))
	for sym := 0; sym < b.size; sym++ {
		if t := b.trans[sym]; t != Root {
			b.fail[t] = Root
			queue = append(queue, t)
		}
	}
	for head := 0; head < len(queue); head++ {
		s := queue[head]
		row := int(s) * b.size
		for sym := 0; sym < b.size; sym++ {
			t := b.trans[row+sym]
			if t == noEdge {
				continue
			}
			f := b.fail[s]
			for b.trans[int(f)*b.size+sym] == noEdge && f != Root {
				f = b.fail[f]
			}
			target := b.trans[int(f)*b.size+sym]
			if target == noEdge {
				target = Root
			}
			b.fail[t] = target
			b.mergeOutputs(t, target)
			queue = append(queue, t)
		}
	}

	return &Automaton{
		alphabet: alpha,
		keywords: kws,
		trans:    b.trans,
		fail:     b.fail,
		out:      b.out,
	}, nil
}

// mergeOutputs folds the outputs of the failure target into t. A state with
// no outputs of its own shares the target's set; sets are never written after
// the state that owns them has been dequeued, so sharing is safe.
func (b *builder) mergeOutputs(t, target int32) {
	src := b.out[target]
	if src == nil {
		return
	}
	if b.out[t] == nil {
		b.out[t] = src
		return
	}
	b.out[t].Union(src)
}
