// Package datapack is the in-memory output model from §4.6: a set of
// entries (path plus content) the driver is responsible for serialising and
// writing to disk. The core only guarantees ordering and exposes a content
// digest for idempotence testing.
package datapack

import (
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// EntryKind distinguishes the three content shapes an output entry can
// carry.
type EntryKind int

const (
	EntryFunction EntryKind = iota // ordered .mcfunction command lines
	EntryJSON                      // a JSON5-normalised resource/asset body
	EntryRaw                       // a copied file-backed resource/asset
)

// Entry is one file the datapack will eventually contain.
type Entry struct {
	Path  string
	Kind  EntryKind
	Lines []string
	JSON  map[string]any
	Raw   []byte
}

// Datapack accumulates entries during lowering. Namespaces are ordered
// alphabetically on Walk; everything else preserves insertion (source)
// order, matching §4.6.
type Datapack struct {
	entries []*Entry
	byPath  map[string]*Entry
	tickFns []string
	loadFns []string
}

func New() *Datapack {
	return &Datapack{byPath: map[string]*Entry{}}
}

func (d *Datapack) add(e *Entry) *Entry {
	d.byPath[e.Path] = e
	d.entries = append(d.entries, e)
	return e
}

// AddFunction registers a user or synthetic function's lowered command
// lines at the conventional `data/<ns>/function/<path>/<name>.mcfunction`
// location.
func (d *Datapack) AddFunction(ns string, modulePath []string, name string, lines []string) *Entry {
	return d.add(&Entry{Path: FunctionPath(ns, modulePath, name), Kind: EntryFunction, Lines: lines})
}

// AddJSON registers a normalised resource/asset body at an explicit path
// (§4.5.5 computes the path; the datapack model doesn't reconstruct it).
func (d *Datapack) AddJSON(path string, value map[string]any) *Entry {
	return d.add(&Entry{Path: path, Kind: EntryJSON, JSON: value})
}

// AddRaw registers a copied file-backed resource/asset's raw bytes.
func (d *Datapack) AddRaw(path string, content []byte) *Entry {
	return d.add(&Entry{Path: path, Kind: EntryRaw, Raw: content})
}

// AddTickFunction/AddLoadFunction record a function's ResLoc for inclusion
// in the generated tick/load function tags (§4.5.5's "final pass").
func (d *Datapack) AddTickFunction(resloc string) { d.tickFns = append(d.tickFns, resloc) }
func (d *Datapack) AddLoadFunction(resloc string) { d.loadFns = append(d.loadFns, resloc) }

// Finalize emits the accumulated tick/load tag files. Call once after every
// function has been lowered.
func (d *Datapack) Finalize() {
	if len(d.tickFns) > 0 {
		d.AddJSON("data/minecraft/tags/function/tick.json", map[string]any{"values": toAnySlice(d.tickFns)})
	}
	if len(d.loadFns) > 0 {
		d.AddJSON("data/minecraft/tags/function/load.json", map[string]any{"values": toAnySlice(d.loadFns)})
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// FunctionPath computes the conventional output path for a user or
// synthetic function.
func FunctionPath(ns string, modulePath []string, name string) string {
	segs := append([]string{"data", ns, "function"}, modulePath...)
	segs = append(segs, name+".mcfunction")
	return strings.Join(segs, "/")
}

// Walk visits every entry in deterministic order: namespaces alphabetical,
// everything else in the order it was added (§4.6).
func (d *Datapack) Walk(fn func(e *Entry)) {
	ordered := append([]*Entry(nil), d.entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return namespaceOf(ordered[i].Path) < namespaceOf(ordered[j].Path)
	})
	for _, e := range ordered {
		fn(e)
	}
}

func namespaceOf(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) >= 2 {
		return parts[1]
	}
	return path
}

// Entries exposes the raw entry slice (unsorted) for callers — tests,
// mainly — that want direct access without the Walk callback shape.
func (d *Datapack) Entries() []*Entry {
	return d.entries
}

// canonicalEncMode renders EntryJSON bodies as deterministic CBOR before
// hashing: map keys sorted, no float/int ambiguity, independent of whatever
// key order the resource's source map happened to build up in.
var canonicalEncMode = sync.OnceValue(func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
})

// Digest hashes every entry's path and content into one blake2b-256 sum, in
// Walk order, so two builds of the same source produce an equal digest
// regardless of map-iteration order or of the order in which namespaces
// were added — the testable idempotence/associativity properties from
// §8 (invariants #6 and #7). Entries within one namespace are hashed in the
// order they were added.
func (d *Datapack) Digest() ([32]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}
	var marshalErr error
	d.Walk(func(e *Entry) {
		h.Write([]byte(e.Path))
		h.Write([]byte{0})
		switch e.Kind {
		case EntryFunction:
			for _, line := range e.Lines {
				h.Write([]byte(line))
				h.Write([]byte{'\n'})
			}
		case EntryJSON:
			b, err := canonicalEncMode().Marshal(e.JSON)
			if err != nil {
				marshalErr = err
				return
			}
			h.Write(b)
		case EntryRaw:
			h.Write(e.Raw)
		}
		h.Write([]byte{0})
	})
	if marshalErr != nil {
		return [32]byte{}, marshalErr
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
