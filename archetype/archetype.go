// Package archetype is the read-only-after-load nested lookup table of
// parameter ranges keyed by (scenario, calibration stage, subsystem,
// function, sub-type, age range). It never raises on a missing key:
// each level falls back to the first available sibling and logs the
// fallback, always returning a best-effort block (spec.md §4.1, §9
// "Deeply nested lookup tables").
package archetype

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bldgsim/beosim/log"
)

// ParameterRange is a closed real interval; min may equal max.
type ParameterRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Block is the leaf payload at the bottom of the lookup: a set of
// named parameter ranges plus any discrete-choice and nested raw
// sub-tables a subsystem needs (schedules-by-archetype,
// system_type_map, and similar ancillary dicts).
type Block struct {
	Ranges        map[string]ParameterRange  `json:"ranges,omitempty"`
	SystemTypeMap map[string]string          `json:"system_type_map,omitempty"`
	Extra         map[string]json.RawMessage `json:"-"`
}

// Node is the archetype tree's sum type: either a Branch of named
// children, or a Leaf Block. Exactly one of the two is populated.
type Node struct {
	children map[string]*Node
	block    *Block
}

func branch(children map[string]*Node) *Node { return &Node{children: children} }
func leaf(b *Block) *Node                    { return &Node{block: b} }

func (n *Node) IsLeaf() bool { return n.block != nil }

// Store is the loaded, read-only archetype lookup. It is built once
// and shared freely across workers (spec.md §5).
type Store struct {
	root map[string]*Node
	log  *log.Logger
}

// Load reads an archetype JSON tree from disk and parses it into the
// fixed six-level schema: scenario → stage → subsystem → function →
// subtype → age_range → Block.
func Load(path string, logger *log.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("archetype: read %s: %w", path, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("archetype: parse %s: %w", path, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{root: buildLevel(raw, 6), log: logger}, nil
}

// buildLevel recursively turns a decoded JSON value into a Node tree.
// depth counts remaining levels before a map is treated as a Block
// leaf rather than a further Branch.
func buildLevel(v any, depth int) map[string]*Node {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	children := make(map[string]*Node, len(obj))
	for k, val := range obj {
		if depth <= 1 {
			children[k] = leaf(blockFrom(val))
			continue
		}
		if sub := buildLevel(val, depth-1); sub != nil {
			children[k] = branch(sub)
		} else {
			children[k] = leaf(blockFrom(val))
		}
	}
	return children
}

func blockFrom(v any) *Block {
	obj, ok := v.(map[string]any)
	if !ok {
		return &Block{}
	}
	b := &Block{Ranges: make(map[string]ParameterRange), Extra: make(map[string]json.RawMessage)}
	for k, val := range obj {
		switch k {
		case "system_type_map":
			if m, ok := val.(map[string]any); ok {
				b.SystemTypeMap = make(map[string]string, len(m))
				for mk, mv := range m {
					if s, ok := mv.(string); ok {
						b.SystemTypeMap[mk] = s
					}
				}
			}
		default:
			if pair, ok := rangeFrom(val); ok {
				b.Ranges[k] = pair
			} else if encoded, err := json.Marshal(val); err == nil {
				b.Extra[k] = encoded
			}
		}
	}
	return b
}

func rangeFrom(v any) (ParameterRange, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return ParameterRange{}, false
	}
	minV, okMin := obj["min"].(float64)
	maxV, okMax := obj["max"].(float64)
	if !okMin || !okMax {
		return ParameterRange{}, false
	}
	return ParameterRange{Min: minV, Max: maxV}, true
}

// GetSubsystemBlock resolves the (scenario, stage, subsystem, function,
// subtype, age_range) path, falling back to the first available
// sibling key (sorted for determinism) at any level that is missing,
// and logging every fallback taken. It always returns a block, even
// if every level had to be defaulted.
func (s *Store) GetSubsystemBlock(scenario, stage, subsystem, function, subtype, ageRange string) *Block {
	keys := []string{scenario, stage, subsystem, function, subtype, ageRange}
	names := []string{"scenario", "stage", "subsystem", "function", "subtype", "age_range"}

	level := s.root
	var node *Node
	for i, want := range keys {
		if level == nil {
			s.log.Warn("archetype: missing level, returning empty block", map[string]any{
				"level": names[i], "requested": want,
			})
			return &Block{Ranges: map[string]ParameterRange{}}
		}
		got, n, fellBack := pickWithFallback(level, want)
		if fellBack {
			s.log.Warn("archetype: lookup fallback", map[string]any{
				"level": names[i], "requested": want, "used": got,
			})
		}
		node = n
		if i < len(keys)-1 {
			level = node.children
		}
	}
	if node == nil || node.block == nil {
		return &Block{Ranges: map[string]ParameterRange{}}
	}
	return node.block
}

// pickWithFallback returns the node at the requested key, or the
// first available key (lexical order) when the requested one is
// absent. The bool return reports whether a fallback occurred.
func pickWithFallback(level map[string]*Node, want string) (string, *Node, bool) {
	if n, ok := level[want]; ok {
		return want, n, false
	}
	keys := make([]string, 0, len(level))
	for k := range level {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return want, leaf(&Block{Ranges: map[string]ParameterRange{}}), true
	}
	return keys[0], level[keys[0]], true
}
