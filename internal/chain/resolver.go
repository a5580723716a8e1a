// Package chain assigns canonical heights to blocks discovered in file
// order. Block files interleave forks and reorg leftovers arbitrarily, so
// discovery order is not chain order.
package chain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/feescope/feescope/internal/logging"
	"github.com/feescope/feescope/internal/types"
)

// ErrMissingGenesis means no scanned block had an all-zero previous hash,
// so there is nothing to anchor heights on.
var ErrMissingGenesis = errors.New("genesis block not found, no block with all-zero previous hash")

const (
	heightUnknown  int64 = -2
	heightOrphaned int64 = -1
)

type node struct {
	prev   chainhash.Hash
	loc    types.BlockLocation
	height int64
}

// Resolver collects headers during the scan pass and resolves them into a
// single canonical chain afterwards. Single-threaded by design: heights are
// computed by a stack machine over one shared table.
type Resolver struct {
	nodes map[chainhash.Hash]*node
	order []chainhash.Hash

	genesis    chainhash.Hash
	hasGenesis bool
}

// Result is the outcome of a resolve pass. Locations is indexed by height
// and covers the contiguous range [0, TipHeight].
type Result struct {
	TipHeight uint32
	TipHash   chainhash.Hash
	Locations []types.BlockLocation
	Orphaned  int
}

func NewResolver() *Resolver {
	return &Resolver{nodes: make(map[chainhash.Hash]*node)}
}

// Add records one discovered block. Duplicate occurrences of the same hash
// keep the first recorded location.
func (r *Resolver) Add(header *wire.BlockHeader, loc types.BlockLocation) {
	hash := loc.BlockHash
	if _, ok := r.nodes[hash]; ok {
		logging.L.Debug().Stringer("hash", &hash).Msg("duplicate block occurrence, keeping first location")
		return
	}
	r.nodes[hash] = &node{prev: header.PrevBlock, loc: loc, height: heightUnknown}
	r.order = append(r.order, hash)

	if header.PrevBlock == (chainhash.Hash{}) {
		r.genesis = hash
		r.hasGenesis = true
	}
}

// NumBlocks returns how many distinct blocks were discovered.
func (r *Resolver) NumBlocks() int {
	return len(r.nodes)
}

// Resolve assigns a height to every block and picks the canonical chain.
//
// Heights are computed in two phases per block: walk backwards pushing
// unresolved ancestors onto a stack until a block with a known height (or
// the genesis anchor) is hit, then unwind the stack assigning incrementing
// heights. A chain whose walk ends at a hash that was never discovered is
// orphaned: truncated or corrupt storage, surfaced as a warning and dropped.
//
// The canonical chain is the one reaching the highest tip. When several
// blocks share the maximum height the first-discovered one wins, which
// matches the view of a single node whose storage holds exactly one active
// tip at any time.
func (r *Resolver) Resolve() (*Result, error) {
	if !r.hasGenesis {
		return nil, ErrMissingGenesis
	}
	r.nodes[r.genesis].height = 0

	orphaned := 0
	for _, hash := range r.order {
		if r.nodes[hash].height != heightUnknown {
			continue
		}
		if !r.resolveHeight(hash) {
			orphaned++
		}
	}

	tipHash, tipHeight := r.findTip()
	locations, err := r.canonicalChain(tipHash, tipHeight)
	if err != nil {
		return nil, err
	}

	if orphaned > 0 {
		logging.L.Warn().Int("blocks", orphaned).Msg("dropped blocks whose ancestry never reaches genesis")
	}

	return &Result{
		TipHeight: tipHeight,
		TipHash:   tipHash,
		Locations: locations,
		Orphaned:  orphaned,
	}, nil
}

// resolveHeight runs the backward/unwind phases for one block. Returns
// false when the block's chain is orphaned.
func (r *Resolver) resolveHeight(start chainhash.Hash) bool {
	var stack []chainhash.Hash
	current := start

	for {
		stack = append(stack, current)
		n, ok := r.nodes[current]
		if !ok {
			// ancestor missing from storage, the whole pending chain
			// hangs off nothing
			logging.L.Warn().
				Stringer("block", &start).
				Stringer("missing_parent", &current).
				Msg("missing parent, dropping chain from index")
			r.markOrphaned(stack[:len(stack)-1])
			return false
		}

		switch n.height {
		case heightUnknown:
			current = n.prev
		case heightOrphaned:
			r.markOrphaned(stack[:len(stack)-1])
			return false
		default:
			// known ancestor found, unwind from here
			base := n.height
			for i := len(stack) - 2; i >= 0; i-- {
				base++
				r.nodes[stack[i]].height = base
			}
			return true
		}
	}
}

func (r *Resolver) markOrphaned(hashes []chainhash.Hash) {
	for _, h := range hashes {
		r.nodes[h].height = heightOrphaned
	}
}

// findTip picks the highest resolved height; ties go to the block that was
// discovered first.
func (r *Resolver) findTip() (chainhash.Hash, uint32) {
	best := r.genesis
	bestHeight := int64(0)
	for _, hash := range r.order {
		if h := r.nodes[hash].height; h > bestHeight {
			best = hash
			bestHeight = h
		}
	}
	return best, uint32(bestHeight)
}

// canonicalChain walks back from the tip filling the height-indexed
// location table. Competing blocks at overlapping heights are simply never
// visited, which is how a longer late-discovered branch supersedes them.
func (r *Resolver) canonicalChain(tipHash chainhash.Hash, tipHeight uint32) ([]types.BlockLocation, error) {
	locations := make([]types.BlockLocation, tipHeight+1)
	current := tipHash
	for height := int64(tipHeight); height >= 0; height-- {
		n, ok := r.nodes[current]
		if !ok {
			return nil, fmt.Errorf("chain broken at height %d, missing block %s", height, current)
		}
		locations[height] = n.loc
		current = n.prev
	}
	if current != (chainhash.Hash{}) {
		return nil, fmt.Errorf("canonical chain does not terminate at genesis, stops at %s", current)
	}
	return locations, nil
}

// HeightOf reports the resolved height of a block, valid after Resolve.
func (r *Resolver) HeightOf(hash chainhash.Hash) (uint32, bool) {
	n, ok := r.nodes[hash]
	if !ok || n.height < 0 {
		return 0, false
	}
	return uint32(n.height), true
}
