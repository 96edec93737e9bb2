package region

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/model"
)

// Mapping is the itl_to_lad.json lookup: level -> group code -> member LAD codes.
type Mapping map[string]map[string][]string

// Resolution is the peer context for one region.
type Resolution struct {
	Code           string      `json:"region_code"`
	Level          model.Level `json:"level"`
	ParentCode     string      `json:"parent_code,omitempty"`
	ParentName     string      `json:"parent_name,omitempty"`
	PeerCodes      []string    `json:"peer_codes"`
	PeerGroupLabel string      `json:"peer_group_label"`
}

// Resolver returns the level, parent and peers for a region code.
type Resolver interface {
	Resolve(code string) (Resolution, error)
}

// Hierarchy is an immutable parent/child table covering ITL1, ITL2, ITL3 and LAD.
// It is safe for concurrent use.
type Hierarchy struct {
	parent   map[string]string
	children map[string][]string
	names    map[string]string
}

// NewHierarchy builds a hierarchy from the ITL1 table and an ITL lookup.
// ITL2 groups hang off their ITL1 prefix, ITL3 groups off their ITL2 prefix
// and LADs off the ITL1 group that lists them. names may be nil.
func NewHierarchy(m Mapping, names map[string]string) *Hierarchy {
	h := &Hierarchy{
		parent:   make(map[string]string),
		children: make(map[string][]string),
		names:    make(map[string]string),
	}

	h.names[UKCode] = UKName
	for _, r := range itl1Table {
		h.link(r.UI, UKCode)
		h.names[r.UI] = r.Name
	}

	for tl, lads := range m["ITL1"] {
		parent := ToUICode(tl)
		if Classify(parent) != model.LevelITL1 {
			continue
		}
		for _, lad := range lads {
			h.link(normalize(lad), parent)
		}
	}
	for code := range m["ITL2"] {
		code = normalize(code)
		if len(code) != 4 {
			continue
		}
		h.link(code, ToUICode(code[:3]))
	}
	for code := range m["ITL3"] {
		code = normalize(code)
		if len(code) != 5 {
			continue
		}
		parent := code[:4]
		if _, ok := h.parent[parent]; !ok {
			// ITL2 missing from the lookup; attach to the ITL1 instead.
			parent = ToUICode(code[:3])
		}
		h.link(code, parent)
	}

	for code, name := range names {
		h.names[ToUICode(code)] = name
	}
	for p := range h.children {
		sort.Strings(h.children[p])
	}
	return h
}

func (h *Hierarchy) link(child, parent string) {
	if _, ok := h.parent[child]; ok {
		return
	}
	h.parent[child] = parent
	h.children[parent] = append(h.children[parent], child)
}

// LoadHierarchy reads an itl_to_lad.json file. A missing file yields the
// ITL1-only hierarchy, matching the behaviour of an empty lookup.
func LoadHierarchy(path string, names map[string]string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		zap.L().Warn("region: hierarchy file not found, using ITL1 table only", zap.String("path", path))
		return NewHierarchy(nil, names), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "region: read hierarchy %s", path)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "region: parse hierarchy %s", path)
	}
	return NewHierarchy(m, names), nil
}

// Name returns the display name for a code, or the code itself.
func (h *Hierarchy) Name(code string) string {
	code = ToUICode(code)
	if n, ok := h.names[code]; ok {
		return n
	}
	return code
}

// Children returns the direct children of a code in code order.
func (h *Hierarchy) Children(code string) []string {
	kids := h.children[ToUICode(code)]
	out := make([]string, len(kids))
	copy(out, kids)
	return out
}

// Resolve implements Resolver.
func (h *Hierarchy) Resolve(code string) (Resolution, error) {
	code = ToUICode(code)
	level := Classify(code)

	if level == model.LevelUK {
		return Resolution{Code: UKCode, Level: level, PeerCodes: []string{}, PeerGroupLabel: UKName}, nil
	}

	parent, ok := h.parent[code]
	if !ok {
		return Resolution{}, eris.Errorf("region: unknown region code %q", code)
	}

	peers := make([]string, 0, len(h.children[parent]))
	for _, c := range h.children[parent] {
		if c != code && Classify(c) == level {
			peers = append(peers, c)
		}
	}

	parentName := h.Name(parent)
	return Resolution{
		Code:           code,
		Level:          level,
		ParentCode:     parent,
		ParentName:     parentName,
		PeerCodes:      peers,
		PeerGroupLabel: peerGroupLabel(level, parentName),
	}, nil
}

func peerGroupLabel(level model.Level, parentName string) string {
	switch level {
	case model.LevelITL1:
		return "UK regions"
	case model.LevelITL2:
		return "ITL2 regions in " + parentName
	case model.LevelITL3:
		return "ITL3 areas in " + parentName
	default:
		return "local authorities in " + parentName
	}
}
