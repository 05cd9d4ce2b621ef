// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package marisa

import (
	"github.com/gaissmai/marisa/internal/cache"
	"github.com/gaissmai/marisa/internal/louds"
)

// NodeOrder selects how sibling children are ordered at build time.
type NodeOrder uint8

const (
	// LabelOrder orders siblings by ascending label byte.
	LabelOrder NodeOrder = iota
	// WeightOrder orders siblings by descending weight, so that a child
	// lookup's sibling scan reaches heavier edges first. Cache population
	// does not take weight into account.
	WeightOrder
)

// TailMode selects how the deepest trie level stores shared suffixes.
type TailMode uint8

const (
	// AutoTailMode lets the tail builder choose text or binary mode
	// based on whether any suffix contains a zero byte.
	AutoTailMode TailMode = iota
	// TextTailMode forces NUL-terminated text mode.
	TextTailMode
	// BinaryTailMode forces the parallel end-flags bit-vector mode, even
	// when no suffix needs it.
	BinaryTailMode
)

// CacheLevel selects the size of the per-trie-level transition cache.
type CacheLevel uint8

const (
	CacheNone   CacheLevel = CacheLevel(cache.LevelNone)
	CacheTiny   CacheLevel = CacheLevel(cache.LevelTiny)
	CacheSmall  CacheLevel = CacheLevel(cache.LevelSmall)
	CacheNormal CacheLevel = CacheLevel(cache.LevelNormal)
	CacheLarge  CacheLevel = CacheLevel(cache.LevelLarge)
	CacheHuge   CacheLevel = CacheLevel(cache.LevelHuge)
)

// BuildConfig holds the options Build accepts. Build starts from one trie
// level, label order, auto tail mode and no cache, then applies the options.
// The zero value itself is not usable: NumTries 0 is rejected.
type BuildConfig struct {
	NumTries   int
	NodeOrder  NodeOrder
	TailMode   TailMode
	CacheLevel CacheLevel
}

// Option configures a BuildConfig.
type Option func(*BuildConfig)

// WithNumTries sets the recursion depth of the nested-trie family, in
// [1,16]. Deeper recursion trades a smaller file for slower queries.
func WithNumTries(n int) Option {
	return func(c *BuildConfig) { c.NumTries = n }
}

// WithNodeOrder sets sibling ordering.
func WithNodeOrder(o NodeOrder) Option {
	return func(c *BuildConfig) { c.NodeOrder = o }
}

// WithTailMode sets the deepest level's suffix storage mode.
func WithTailMode(m TailMode) Option {
	return func(c *BuildConfig) { c.TailMode = m }
}

// WithCacheLevel sets the per-level transition cache size.
func WithCacheLevel(l CacheLevel) Option {
	return func(c *BuildConfig) { c.CacheLevel = l }
}

func defaultBuildConfig() BuildConfig {
	return BuildConfig{NumTries: 1, NodeOrder: LabelOrder, TailMode: AutoTailMode, CacheLevel: CacheNone}
}

func (c BuildConfig) toInternal() louds.Config {
	return louds.Config{
		NumTries:   c.NumTries,
		NodeOrder:  louds.NodeOrder(c.NodeOrder),
		CacheLevel: cache.Level(c.CacheLevel),
		TailPref:   louds.TailPreference(c.TailMode),
	}
}
