package ast

import "strings"

// ResLoc is a resource location: `(namespace, path segments)` (§3). Surface
// forms are distinguished by Form until the resolver fixes Namespace and
// Path to a concrete, absolute value (§4.4's resolution order).
type ResLoc struct {
	Namespace string   // empty until resolved, unless the surface form was absolute
	Path      []string // path segments, always non-empty after resolution
	Form      ResLocForm
}

// ResLocForm records which surface grammar produced this ResLoc, since the
// resolver dispatches on it (§4.4).
type ResLocForm int

const (
	FormAbsolute    ResLocForm = iota // ns:a/b/c
	FormNamespaced                    // :a/b/c — namespace inferred from enclosing `namespace`
	FormModuleRooted                  // ~/a/b — rooted at the enclosing module
	FormRelative                      // a/b or a — both namespace and module inferred
)

// String renders the ResLoc in its absolute surface form, ns:a/b/c.
func (r ResLoc) String() string {
	return r.Namespace + ":" + strings.Join(r.Path, "/")
}

// IsResolved reports whether this ResLoc has a concrete namespace and a
// non-empty absolute path, the post-resolution invariant from §3 and
// testable property §8.1.
func (r ResLoc) IsResolved() bool {
	return r.Namespace != "" && len(r.Path) > 0
}

// Name returns the final path segment, the "simple name" used for
// variable/function addressing (§4.5.1).
func (r ResLoc) Name() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}

// Parent returns the ResLoc with its final path segment dropped — the
// enclosing module.
func (r ResLoc) Parent() ResLoc {
	if len(r.Path) == 0 {
		return r
	}
	cp := make([]string, len(r.Path)-1)
	copy(cp, r.Path[:len(r.Path)-1])
	return ResLoc{Namespace: r.Namespace, Path: cp, Form: FormAbsolute}
}

// Join appends segments, used when the resolver concatenates a current
// module path with a relative reference.
func (r ResLoc) Join(segments ...string) ResLoc {
	cp := make([]string, 0, len(r.Path)+len(segments))
	cp = append(cp, r.Path...)
	cp = append(cp, segments...)
	return ResLoc{Namespace: r.Namespace, Path: cp, Form: FormAbsolute}
}

// ParseResLocPath splits a slash-separated path ignoring empty segments
// (so "a//b" and "a/b" are equivalent, and a leading "~/"/":" marker has
// already been stripped by the caller).
func ParseResLocPath(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
