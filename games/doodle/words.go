/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
)

//go:embed words.json
var defaultWords []byte

// WordEntry is a word the artist can draw, along with every answer that
// counts as guessing it.
type WordEntry struct {
	Word     string   `json:"word"`
	Variants []string `json:"variants"`
}

// Bank is a read-only word catalog.
type Bank struct {
	entries []WordEntry
	rng     *rand.Rand
}

// NewBank normalizes the variants of each entry and collapses entries that
// share a canonical word, so that every entry handed out by Pick is distinct.
func NewBank(entries []WordEntry, rng *rand.Rand) (*Bank, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	seen := make(map[string]struct{}, len(entries))
	out := make([]WordEntry, 0, len(entries))

	for i, e := range entries {
		word := strings.TrimSpace(e.Word)
		if word == "" {
			return nil, fmt.Errorf("word bank entry %d: %w", i, ErrMalformed)
		}

		key := normalizeVariant(word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		variants := make([]string, 0, len(e.Variants)+1)
		have := make(map[string]struct{}, len(e.Variants))
		for _, v := range e.Variants {
			v = normalizeVariant(v)
			if v == "" {
				continue
			}
			if _, ok := have[v]; ok {
				continue
			}
			have[v] = struct{}{}
			variants = append(variants, v)
		}
		if len(variants) == 0 {
			variants = append(variants, key)
		}

		out = append(out, WordEntry{Word: word, Variants: variants})
	}

	if len(out) == 0 {
		return nil, ErrNotEnoughWords
	}

	return &Bank{entries: out, rng: rng}, nil
}

// LoadBank reads a JSON array of {"word", "variants"} objects.
func LoadBank(r io.Reader, rng *rand.Rand) (*Bank, error) {
	var entries []WordEntry

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode word bank: %w", err)
	}

	return NewBank(entries, rng)
}

// DefaultBank returns the built-in catalog.
func DefaultBank(rng *rand.Rand) (*Bank, error) {
	return LoadBank(bytes.NewReader(defaultWords), rng)
}

func (b *Bank) Len() int {
	return len(b.entries)
}

// Pick returns n distinct entries, chosen uniformly without replacement.
func (b *Bank) Pick(n int) ([]WordEntry, error) {
	if n < 0 || n > len(b.entries) {
		return nil, fmt.Errorf("pick %d of %d: %w", n, len(b.entries), ErrNotEnoughWords)
	}

	idx := b.rng.Perm(len(b.entries))[:n]
	out := make([]WordEntry, n)
	for i, j := range idx {
		out[i] = b.entries[j].clone()
	}

	return out, nil
}

func (e WordEntry) clone() WordEntry {
	return WordEntry{Word: e.Word, Variants: append([]string(nil), e.Variants...)}
}
