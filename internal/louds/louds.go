// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package louds implements one recursively-nestable level of the dictionary's
// LOUDS (Level-Order Unary Degree Sequence) trie: the succinct, labelled,
// patricia-compressed tree that the rest of the engine is built around.
//
// A LoudsTrie owns exactly one level of the recursion. When patricia
// compression collapses a group of keys down to a single remaining member
// whose suffix is longer than one byte, that suffix is either pushed into a
// child LoudsTrie (as a fresh, reversed key, recursively built the same way)
// or into a [tail.Tail] suffix store, depending on how many nested levels
// remain. The recursion bottoms out at the Tail: it is the only place
// variable-length byte runs are ever physically stored.
//
// The level-order BFS construction and the bitmap/leaf split it produces are
// grounded on NobeKanai/sutrie's BuildSuccinctTrie in the retrieval pack,
// generalized here from a flat succinct trie into the recursively nested,
// patricia-compressing family of tries the dictionary format requires.
package louds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/gaissmai/marisa/internal/bitvector"
	"github.com/gaissmai/marisa/internal/cache"
	"github.com/gaissmai/marisa/internal/flatvector"
	"github.com/gaissmai/marisa/internal/ioblob"
	"github.com/gaissmai/marisa/internal/tail"
	"github.com/gaissmai/marisa/internal/trieerr"
)

// NodeOrder selects how children are ordered within a sibling group.
type NodeOrder uint8

const (
	// OrderLabel orders siblings by ascending label byte.
	OrderLabel NodeOrder = iota
	// OrderWeight orders siblings by descending weight, ascending label
	// on ties, so that Child's sibling scan reaches heavier edges first.
	// Cache population does not take weight into account.
	OrderWeight
)

// TailPreference selects how a level picks between text and binary tail
// storage, independently of [tail.Tail]'s own automatic zero-byte detection.
type TailPreference uint8

const (
	// TailAuto lets the Tail builder pick text or binary mode based on
	// whether any suffix contains a zero byte.
	TailAuto TailPreference = iota
	// TailForceText requires text mode; building fails if any suffix
	// routed to the tail at the deepest level contains a zero byte.
	TailForceText
	// TailForceBinary always uses binary mode, even when no suffix needs
	// it, trading a larger end_flags bit-vector for predictable layout.
	TailForceBinary
)

// toTailPreference maps the level's configured preference onto
// [tail.Preference], the knob tail.Build actually honors.
func (p TailPreference) toTailPreference() tail.Preference {
	switch p {
	case TailForceText:
		return tail.PreferText
	case TailForceBinary:
		return tail.PreferBinary
	default:
		return tail.PreferAuto
	}
}

// MinTries and MaxTries bound the configurable recursion depth (§4.4).
const (
	MinTries = 1
	MaxTries = 16
)

// Config is the build-time configuration shared by every level of the
// recursive trie family (§9 "cache-level, node-order, tail-mode as integer
// flags").
type Config struct {
	NumTries   int
	NodeOrder  NodeOrder
	CacheLevel cache.Level
	TailPref   TailPreference
}

// Validate checks the configuration bounds from §4.4's build failure
// semantics.
func (c Config) Validate() error {
	if c.NumTries < MinTries || c.NumTries > MaxTries {
		return fmt.Errorf("%w: num_tries %d out of range [%d,%d]", trieerr.ErrInvalidInput, c.NumTries, MinTries, MaxTries)
	}
	return nil
}

// Key is one input string carrying its build-time weight and its original
// position, the unit the top-level Keyset and every recursive child-trie
// batch operate on.
type Key struct {
	Bytes  []byte
	Weight uint32
	ID     int
}

// LoudsTrie is one level of the recursive patricia trie: LOUDS topology,
// terminal/link bit-vectors, per-node labels, and (when needed) a nested
// child trie and/or tail suffix store.
type LoudsTrie struct {
	cfg Config

	louds         *bitvector.BitVector
	terminalFlags *bitvector.BitVector
	linkFlags     *bitvector.BitVector
	bases         []byte
	extras        *flatvector.FlatVector

	tailStore *tail.Tail
	next      *LoudsTrie

	cacheTbl *cache.Cache
}

// Config reports the configuration this level was built (or loaded) with.
func (t *LoudsTrie) Config() Config { return t.cfg }

// NumNodes returns the total node count at this level, including the
// artificial node 0.
func (t *LoudsTrie) NumNodes() int { return len(t.bases) }

// NumKeys returns the number of terminal nodes at this level: the size of
// the dictionary for the top-level trie, or the number of distinct reversed
// suffixes recursed into for a child trie.
func (t *LoudsTrie) NumKeys() int { return t.terminalFlags.NumOnes() }

// Root is the node id of the real root (node 0 is the artificial super-root
// LOUDS needs to give node 1 an incoming edge).
func (t *LoudsTrie) Root() int { return 1 }

// Next returns the nested child trie, or nil if this level stores every
// compressed label in its own tail.
func (t *LoudsTrie) Next() *LoudsTrie { return t.next }

// Depth returns how many levels of next-trie nesting exist under this one
// (0 if this is the deepest level).
func (t *LoudsTrie) Depth() int {
	if t.next == nil {
		return 0
	}
	return 1 + t.next.Depth()
}

// IsTerminal reports whether reaching node completes a stored key.
func (t *LoudsTrie) IsTerminal(node int) bool { return t.terminalFlags.Get(node) }

// KeyID returns the stable key-id for a terminal node: the rank of its
// terminal flag among all terminal flags up to and including it, 0-indexed.
// Behaviour is undefined if node is not terminal.
func (t *LoudsTrie) KeyID(node int) int { return t.terminalFlags.Rank1(node+1) - 1 }

// NodeForKeyID is the inverse of KeyID.
func (t *LoudsTrie) NodeForKeyID(id int) (int, bool) {
	return t.terminalFlags.Select1(id)
}

// Parent returns the node id above node, or 0 (the super-root) for the real
// root.
func (t *LoudsTrie) Parent(node int) int {
	if node <= 1 {
		return 0
	}
	pos, ok := t.louds.Select1(node - 1)
	if !ok {
		return 0
	}
	return t.louds.Rank0(pos)
}

// firstEdge returns the bit position of the first child edge of node, and
// whether node has any children at all. A node's own block of child bits
// starts right after the PRECEDING node's terminating zero, not its own:
// node 0's block starts at position 0, node n's (n>=1) starts at
// Select0(n-1)+1.
func (t *LoudsTrie) firstEdge(node int) (int, bool) {
	start := 0
	if node > 0 {
		pos, ok := t.louds.Select0(node - 1)
		if !ok {
			return 0, false
		}
		start = pos + 1
	}
	if start >= t.louds.Size() || !t.louds.Get(start) {
		return 0, false
	}
	return start, true
}

// Children enumerates node's immediate children in sibling order, used by
// predictive-search's level-order fan-out.
func (t *LoudsTrie) Children(node int) []int {
	p, ok := t.firstEdge(node)
	if !ok {
		return nil
	}
	var out []int
	for t.louds.Get(p) {
		out = append(out, t.louds.Rank1(p+1))
		p++
	}
	return out
}

// Child resolves the single child of node whose label is a byte-for-byte
// prefix of query, returning the child id and how many query bytes its
// label consumed. Candidates are tried in sibling order and their full
// label is resolved (which may cross into a child trie or the tail) to
// support patricia-compressed, multi-byte edges uniformly with plain
// one-byte ones.
func (t *LoudsTrie) Child(node int, query []byte) (child, consumed int, ok bool) {
	if len(query) > 0 {
		if childID, _, _, hit := t.cacheTbl.Lookup(uint32(node), query[0]); hit {
			return int(childID), 1, true
		}
	}

	p, has := t.firstEdge(node)
	if !has {
		return 0, 0, false
	}
	for t.louds.Get(p) {
		c := t.louds.Rank1(p + 1)

		if !t.linkFlags.Get(c) {
			if len(query) > 0 && t.bases[c] == query[0] {
				return c, 1, true
			}
			p++
			continue
		}

		if t.next == nil {
			// Deepest level: the label lives in the tail, so match it
			// directly against the remaining query via §4.3's named
			// tail query primitive instead of materializing the full
			// suffix first.
			if consumed, ok := t.tailStore.Match(t.linkIndex(c), query); ok {
				return c, consumed, true
			}
			p++
			continue
		}

		lbl := t.Label(c)
		if len(lbl) <= len(query) && bytes.Equal(query[:len(lbl)], lbl) {
			return c, len(lbl), true
		}
		p++
	}
	return 0, 0, false
}

// linkIndex resolves a link-flagged node's effective label index: the
// low 8 bits come from bases, the high bits from the extras overflow
// vector, per §3's "per-node label" layout.
func (t *LoudsTrie) linkIndex(node int) uint64 {
	rank := t.linkFlags.Rank1(node)
	extra := t.extras.Get(rank)
	return (extra << 8) | uint64(t.bases[node])
}

// Label resolves the full (possibly multi-byte) incoming-edge label of
// node: a plain byte for an uncompressed edge, or the bytes recovered from
// the child trie / tail store for a compressed one.
func (t *LoudsTrie) Label(node int) []byte {
	if !t.linkFlags.Get(node) {
		return []byte{t.bases[node]}
	}

	index := t.linkIndex(node)

	if t.next != nil {
		childNode, ok := t.next.NodeForKeyID(int(index))
		if !ok {
			return nil
		}
		reversed := t.next.keyBytes(childNode)
		return reverseBytes(reversed)
	}

	return t.tailStore.Suffix(index)
}

// keyBytes reconstructs the full path label from the root to node,
// concatenating each edge's (possibly multi-byte, possibly recursively
// resolved) label in root-to-leaf order.
func (t *LoudsTrie) keyBytes(node int) []byte {
	var parts [][]byte
	for n := node; n != t.Root(); n = t.Parent(n) {
		parts = append(parts, t.Label(n))
	}
	var out []byte
	for i := len(parts) - 1; i >= 0; i-- {
		out = append(out, parts[i]...)
	}
	return out
}

// KeyBytes reconstructs the full stored key reaching node, from the real
// root. Exported for reverse-lookup and dump.
func (t *LoudsTrie) KeyBytes(node int) []byte { return t.keyBytes(node) }

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// Stat summarizes a built level for Trie.Stat().
type Stat struct {
	NumKeys  int
	NumNodes int
}

// Collect gathers per-level stats from this level down through every
// nested child trie.
func (t *LoudsTrie) Collect() []Stat {
	stats := []Stat{{NumKeys: t.NumKeys(), NumNodes: t.NumNodes()}}
	if t.next != nil {
		stats = append(stats, t.next.Collect()...)
	}
	return stats
}

// pendingLink is one not-yet-resolved compressed edge: the node whose
// bases/extras still need to be filled in once the batch it belongs to
// (tail or child trie) has been built.
type pendingLink struct {
	node      int
	remaining []byte // full remaining suffix for this key, including the byte that triggered patricia compression
}

// builder accumulates one level's worth of node state during the BFS
// construction in Build.
type builder struct {
	cfg   Config
	depth int

	bases      []byte
	terminal   []bool
	link       []bool
	childCount []int

	keyNodeOf map[int]int // original Key.ID -> node id its terminal flag lives on

	pendingTail []pendingLink
	pendingTrie []pendingLink
}

func newBuilder(cfg Config, depth int) *builder {
	b := &builder{cfg: cfg, depth: depth, keyNodeOf: make(map[int]int)}
	// node 0: the artificial super-root, always exactly one child (node 1).
	b.bases = append(b.bases, 0)
	b.terminal = append(b.terminal, false)
	b.link = append(b.link, false)
	b.childCount = append(b.childCount, 1)
	return b
}

func (b *builder) alloc() int {
	id := len(b.bases)
	b.bases = append(b.bases, 0)
	b.terminal = append(b.terminal, false)
	b.link = append(b.link, false)
	b.childCount = append(b.childCount, 0)
	return id
}

// queueItem is a node whose own children still need to be discovered.
type queueItem struct {
	node     int
	group    []Key
	consumed int
}

// Build constructs one trie level from a set of keys already scoped to this
// recursion depth. depth 0 is the top-level trie; depth < cfg.NumTries-1
// may recurse into a child trie for compressed labels, depth ==
// cfg.NumTries-1 always routes them into this level's own tail.
//
// It returns the built level and, aligned by each input Key's ID field, the
// stable key-id that key was assigned at this level (§4.4 step 7's id
// remapping).
func Build(keys []Key, cfg Config, depth int) (*LoudsTrie, []int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("%w: empty keyset", trieerr.ErrInvalidInput)
	}

	sorted := make([]Key, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Bytes, sorted[j].Bytes) < 0
	})

	b := newBuilder(cfg, depth)

	root := b.alloc()
	queue := []queueItem{{node: root, group: sorted, consumed: 0}}

	for qi := 0; qi < len(queue); qi++ {
		item := queue[qi]
		more, err := b.expand(item.node, item.group, item.consumed)
		if err != nil {
			return nil, nil, err
		}
		queue = append(queue, more...)
	}

	// Resolve compressed labels: build the tail and/or recurse into a
	// child trie, then patch bases/extras for every linked node in
	// ascending node-id order (the order both pending lists were
	// appended in, since node ids are handed out strictly increasingly
	// during the BFS above).
	var tailStore *tail.Tail
	var tailOffsets []uint64
	if len(b.pendingTail) > 0 || depth == cfg.NumTries-1 {
		suffixes := make([][]byte, len(b.pendingTail))
		for i, p := range b.pendingTail {
			suffixes[i] = p.remaining
		}
		ts, offs, err := tail.Build(suffixes, cfg.TailPref.toTailPreference())
		if err != nil {
			return nil, nil, err
		}
		tailStore, tailOffsets = ts, offs
	} else {
		ts, _, err := tail.Build(nil, cfg.TailPref.toTailPreference())
		if err != nil {
			return nil, nil, err
		}
		tailStore = ts
	}

	var next *LoudsTrie
	var childIDMap []int
	if len(b.pendingTrie) > 0 {
		// Identical suffixes share one child-trie key.
		childKeys := make([]Key, 0, len(b.pendingTrie))
		keyOf := make([]int, len(b.pendingTrie))
		seen := make(map[string]int, len(b.pendingTrie))
		for i, p := range b.pendingTrie {
			rev := reverseBytes(p.remaining)
			j, dup := seen[string(rev)]
			if !dup {
				j = len(childKeys)
				seen[string(rev)] = j
				childKeys = append(childKeys, Key{Bytes: rev, ID: j})
			}
			keyOf[i] = j
		}
		n, idMap, err := Build(childKeys, cfg, depth+1)
		if err != nil {
			return nil, nil, err
		}
		next = n
		childIDMap = make([]int, len(keyOf))
		for i, j := range keyOf {
			childIDMap[i] = idMap[j]
		}
	}

	extraValues := make([]uint64, 0, len(b.pendingTail)+len(b.pendingTrie))
	ti, ci := 0, 0
	for node := 0; node < len(b.bases); node++ {
		if !b.link[node] {
			continue
		}
		var index uint64
		switch {
		case ti < len(b.pendingTail) && b.pendingTail[ti].node == node:
			index = tailOffsets[ti]
			ti++
		case ci < len(b.pendingTrie) && b.pendingTrie[ci].node == node:
			index = uint64(childIDMap[ci])
			ci++
		default:
			return nil, nil, fmt.Errorf("%w: louds build: unresolved link at node %d", trieerr.ErrInvalidInput, node)
		}
		b.bases[node] = byte(index & 0xFF)
		extraValues = append(extraValues, index>>8)
	}

	extras, err := flatvector.Build(extraValues)
	if err != nil {
		return nil, nil, err
	}

	louds := bitvector.New()
	for node := range b.childCount {
		for range b.childCount[node] {
			louds.PushBack(true)
		}
		louds.PushBack(false)
	}
	louds.Build(true, true)

	terminal := bitvector.New()
	for _, v := range b.terminal {
		terminal.PushBack(v)
	}
	terminal.Build(false, true)

	link := bitvector.New()
	for _, v := range b.link {
		link.PushBack(v)
	}
	link.Build(false, false)

	t := &LoudsTrie{
		cfg:           cfg,
		louds:         louds,
		terminalFlags: terminal,
		linkFlags:     link,
		bases:         b.bases,
		extras:        extras,
		tailStore:     tailStore,
		next:          next,
		cacheTbl:      buildCache(cfg.CacheLevel),
	}

	idMap := make([]int, len(keys))
	for _, k := range keys {
		node, ok := b.keyNodeOf[k.ID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: louds build: key id %d was never placed", trieerr.ErrInvalidInput, k.ID)
		}
		idMap[k.ID] = terminal.Rank1(node+1) - 1
	}

	t.populateCache(root, b)

	return t, idMap, nil
}

// expand determines node's own terminal flag and, if its group hasn't
// collapsed to a single deep key, its children. Freshly discovered children
// needing their own expansion are returned to be enqueued by the caller.
func (b *builder) expand(node int, group []Key, consumed int) ([]queueItem, error) {
	exactN := 0
	for exactN < len(group) && len(group[exactN].Bytes) == consumed {
		exactN++
	}
	if exactN > 1 {
		return nil, fmt.Errorf("%w: duplicate key %q", trieerr.ErrInvalidInput, group[0].Bytes)
	}
	if exactN == 1 {
		b.terminal[node] = true
		b.keyNodeOf[group[0].ID] = node
	}
	active := group[exactN:]

	if len(active) == 0 {
		return nil, nil
	}

	if len(active) == 1 {
		remaining := active[0].Bytes[consumed:]
		child := b.alloc()
		b.childCount[node] = 1

		if len(remaining) == 1 {
			b.bases[child] = remaining[0]
			return []queueItem{{node: child, group: active, consumed: consumed + 1}}, nil
		}

		b.link[child] = true
		b.terminal[child] = true
		b.keyNodeOf[active[0].ID] = child
		if b.depth < b.cfg.NumTries-1 {
			b.pendingTrie = append(b.pendingTrie, pendingLink{node: child, remaining: remaining})
		} else {
			b.pendingTail = append(b.pendingTail, pendingLink{node: child, remaining: remaining})
		}
		return nil, nil
	}

	buckets := partitionByByte(active, consumed)
	orderBuckets(buckets, b.cfg.NodeOrder)
	b.childCount[node] = len(buckets)

	items := make([]queueItem, 0, len(buckets))
	for _, bk := range buckets {
		child := b.alloc()
		if len(bk.keys) == 1 && len(bk.keys[0].Bytes) > consumed+1 {
			// A sibling group holding a single key collapses right here:
			// its whole remaining suffix becomes this edge's label.
			b.link[child] = true
			b.terminal[child] = true
			b.keyNodeOf[bk.keys[0].ID] = child
			pl := pendingLink{node: child, remaining: bk.keys[0].Bytes[consumed:]}
			if b.depth < b.cfg.NumTries-1 {
				b.pendingTrie = append(b.pendingTrie, pl)
			} else {
				b.pendingTail = append(b.pendingTail, pl)
			}
			continue
		}
		b.bases[child] = bk.label
		items = append(items, queueItem{node: child, group: bk.keys, consumed: consumed + 1})
	}
	return items, nil
}

type bucket struct {
	label  byte
	keys   []Key
	weight uint64
}

// partitionByByte splits a lexicographically sorted, contiguous run of keys
// (all sharing a `consumed`-byte prefix) into contiguous runs sharing the
// same next byte.
func partitionByByte(keys []Key, consumed int) []bucket {
	var out []bucket
	start := 0
	for start < len(keys) {
		label := keys[start].Bytes[consumed]
		end := start + 1
		var weight uint64
		weight += uint64(keys[start].Weight)
		for end < len(keys) && keys[end].Bytes[consumed] == label {
			weight += uint64(keys[end].Weight)
			end++
		}
		out = append(out, bucket{label: label, keys: keys[start:end], weight: weight})
		start = end
	}
	return out
}

func orderBuckets(buckets []bucket, order NodeOrder) {
	if order != OrderWeight {
		return
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].weight != buckets[j].weight {
			return buckets[i].weight > buckets[j].weight
		}
		return buckets[i].label < buckets[j].label
	})
}

// buildCache allocates an empty cache table for level; entries are filled
// in afterwards by populateCache once the trie's topology is known.
func buildCache(level cache.Level) *cache.Cache { return cache.New(level) }

// populateCache seeds the cache with every plain (non-link) edge of the
// level, walking depth-first from the root; when two edges hash to the same
// slot, the one inserted later replaces the earlier one. Link-compressed
// edges are not cached: their true first byte
// would need a full label resolution to discover, defeating the point of a
// short-circuit.
func (t *LoudsTrie) populateCache(root int, b *builder) {
	if t.cacheTbl.Level() == cache.LevelNone {
		return
	}
	var walk func(node int)
	walk = func(node int) {
		for _, child := range t.Children(node) {
			if !b.link[child] {
				t.cacheTbl.Insert(uint32(node), b.bases[child], uint32(child), b.bases[child], 0)
			}
			walk(child)
		}
	}
	walk(root)
}

// --- serialization (§6) ---

// WriteTo serializes this level and, recursively, every nested child trie
// as the framed LoudsTrie blob schema.
func (t *LoudsTrie) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for _, bv := range []*bitvector.BitVector{t.louds, t.terminalFlags, t.linkFlags} {
		n, err := bv.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err := ioblob.WriteVector(w, t.bases)
	total += n
	if err != nil {
		return total, err
	}

	n, err = t.extras.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}

	n, err = t.tailStore.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}

	hasNext := uint8(0)
	if t.next != nil {
		hasNext = 1
	}
	if err := binary.Write(w, binary.LittleEndian, hasNext); err != nil {
		return total, fmt.Errorf("louds: write next_trie marker: %w", err)
	}
	total++
	if t.next != nil {
		n, err = t.next.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err = ioblob.WriteVector(w, t.cacheTbl.Entries())
	total += n
	if err != nil {
		return total, err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(t.NumNodes())); err != nil {
		return total, fmt.Errorf("louds: write num_l1_nodes: %w", err)
	}
	total += 4

	if err := binary.Write(w, binary.LittleEndian, encodeConfig(t.cfg, t.Depth())); err != nil {
		return total, fmt.Errorf("louds: write config_flags: %w", err)
	}
	total += 4

	return total, nil
}

// ReadFrom deserializes a level written by WriteTo, copying every backing
// buffer.
func ReadFrom(r io.Reader) (*LoudsTrie, error) {
	t := &LoudsTrie{
		louds:         bitvector.New(),
		terminalFlags: bitvector.New(),
		linkFlags:     bitvector.New(),
		extras:        &flatvector.FlatVector{},
		tailStore:     &tail.Tail{},
	}

	for _, bv := range []*bitvector.BitVector{t.louds, t.terminalFlags, t.linkFlags} {
		if _, err := bv.ReadFrom(r); err != nil {
			return nil, err
		}
	}

	bases, err := ioblob.ReadVector[byte](r)
	if err != nil {
		return nil, err
	}
	t.bases = bases

	if _, err := t.extras.ReadFrom(r); err != nil {
		return nil, err
	}
	if _, err := t.tailStore.ReadFrom(r); err != nil {
		return nil, err
	}

	var hasNext uint8
	if err := binary.Read(r, binary.LittleEndian, &hasNext); err != nil {
		return nil, fmt.Errorf("louds: read next_trie marker: %w", err)
	}
	if hasNext == 1 {
		next, err := ReadFrom(r)
		if err != nil {
			return nil, err
		}
		t.next = next
	}

	rawEntries, err := ioblob.ReadVector[cache.Entry](r)
	if err != nil {
		return nil, err
	}

	var numL1Nodes uint32
	if err := binary.Read(r, binary.LittleEndian, &numL1Nodes); err != nil {
		return nil, fmt.Errorf("louds: read num_l1_nodes: %w", err)
	}
	if int(numL1Nodes) != len(t.bases) {
		return nil, fmt.Errorf("%w: louds num_l1_nodes mismatch: header says %d, bases has %d", trieerr.ErrInvalidFormat, numL1Nodes, len(t.bases))
	}

	var configFlags uint32
	if err := binary.Read(r, binary.LittleEndian, &configFlags); err != nil {
		return nil, fmt.Errorf("louds: read config_flags: %w", err)
	}
	cfg, _, err := decodeConfig(configFlags)
	if err != nil {
		return nil, err
	}
	t.cfg = cfg
	t.cacheTbl = cache.Rehydrate(cfg.CacheLevel, rawEntries)

	return t, nil
}

// Map carves a level out of buf at offset without copying any backing
// buffer.
func Map(buf []byte, offset int64) (*LoudsTrie, int64, error) {
	t := &LoudsTrie{
		louds:         bitvector.New(),
		terminalFlags: bitvector.New(),
		linkFlags:     bitvector.New(),
		extras:        &flatvector.FlatVector{},
		tailStore:     &tail.Tail{},
	}

	var err error
	for _, bv := range []*bitvector.BitVector{t.louds, t.terminalFlags, t.linkFlags} {
		offset, err = bv.Map(buf, offset)
		if err != nil {
			return nil, 0, err
		}
	}

	bases, offset, err := ioblob.MapVector[byte](buf, offset)
	if err != nil {
		return nil, 0, err
	}
	t.bases = bases

	offset, err = t.extras.Map(buf, offset)
	if err != nil {
		return nil, 0, err
	}
	offset, err = t.tailStore.Map(buf, offset)
	if err != nil {
		return nil, 0, err
	}

	if offset+1 > int64(len(buf)) {
		return nil, 0, fmt.Errorf("%w: truncated next_trie marker", trieerr.ErrInvalidFormat)
	}
	hasNext := buf[offset]
	offset++
	if hasNext == 1 {
		next, nextOffset, err := Map(buf, offset)
		if err != nil {
			return nil, 0, err
		}
		t.next = next
		offset = nextOffset
	}

	rawEntries, offset, err := ioblob.MapVector[cache.Entry](buf, offset)
	if err != nil {
		return nil, 0, err
	}

	if offset+8 > int64(len(buf)) {
		return nil, 0, fmt.Errorf("%w: truncated louds trailer", trieerr.ErrInvalidFormat)
	}
	numL1Nodes := binary.LittleEndian.Uint32(buf[offset : offset+4])
	configFlags := binary.LittleEndian.Uint32(buf[offset+4 : offset+8])
	offset += 8

	if int(numL1Nodes) != len(t.bases) {
		return nil, 0, fmt.Errorf("%w: louds num_l1_nodes mismatch: header says %d, bases has %d", trieerr.ErrInvalidFormat, numL1Nodes, len(t.bases))
	}

	cfg, _, err := decodeConfig(configFlags)
	if err != nil {
		return nil, 0, err
	}
	t.cfg = cfg
	t.cacheTbl = cache.Rehydrate(cfg.CacheLevel, rawEntries)

	return t, offset, nil
}

func encodeConfig(cfg Config, depth int) uint32 {
	var v uint32
	v |= uint32(cfg.NumTries) & 0x1F
	v |= (uint32(cfg.TailPref) & 0x3) << 5
	v |= (uint32(cfg.NodeOrder) & 0x1) << 7
	v |= (uint32(cfg.CacheLevel) & 0x7) << 8
	v |= (uint32(depth) & 0x1F) << 11
	return v
}

func decodeConfig(v uint32) (Config, int, error) {
	numTries := int(v & 0x1F)
	tailPref := TailPreference((v >> 5) & 0x3)
	nodeOrder := NodeOrder((v >> 7) & 0x1)
	cacheLevel := cache.Level((v >> 8) & 0x7)
	depth := int((v >> 11) & 0x1F)

	cfg := Config{NumTries: numTries, TailPref: tailPref, NodeOrder: nodeOrder, CacheLevel: cacheLevel}
	if err := cfg.Validate(); err != nil {
		return Config{}, 0, fmt.Errorf("%w: louds: %v", trieerr.ErrInvalidFormat, err)
	}
	return cfg, depth, nil
}
