package resolver

import (
	"fmt"

	"github.com/quirepdf/quire/core"
)

// ObjectReader supplies objects to the resolver. The document reader
// implements it; tests substitute an in-memory map.
type ObjectReader interface {
	GetObject(objNum int) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// ObjectResolver follows indirect references, optionally recursing into
// containers. Resolution is bounded: a depth limit stops runaway nesting and
// a visited set turns reference cycles into errors instead of infinite
// loops. Objects shared by multiple branches resolve normally; only a true
// back-edge within one resolution path is reported as a cycle.
type ObjectResolver struct {
	reader       ObjectReader
	visited      map[int]bool
	maxDepth     int
	currentDepth int
}

// Option configures the resolver.
type Option func(*ObjectResolver)

// WithMaxDepth sets the maximum recursion depth (default: 100).
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		r.maxDepth = depth
	}
}

// NewResolver creates a new object resolver backed by reader.
func NewResolver(reader ObjectReader, opts ...Option) *ObjectResolver {
	r := &ObjectResolver{
		reader:   reader,
		visited:  make(map[int]bool),
		maxDepth: 100,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve follows obj if it is an indirect reference and returns the target.
// Containers pass through with their contents untouched.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	return r.resolve(obj, false)
}

// ResolveDeep resolves obj and every reference nested in dictionaries,
// arrays, and stream dictionaries, fully expanding the object tree.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	return r.resolve(obj, true)
}

func (r *ObjectResolver) resolve(obj core.Object, deep bool) (core.Object, error) {
	// A fresh top-level call starts a fresh resolution tree
	if r.currentDepth == 0 {
		r.visited = make(map[int]bool)
	}

	if r.currentDepth >= r.maxDepth {
		return nil, fmt.Errorf("maximum recursion depth (%d) exceeded", r.maxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if r.visited[v.Number] {
			return nil, fmt.Errorf("circular reference detected for object %d", v.Number)
		}

		r.visited[v.Number] = true
		// Unmark on the way out so the same object may appear in sibling
		// branches without tripping cycle detection
		defer delete(r.visited, v.Number)

		resolved, err := r.reader.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reference %d %d R: %w", v.Number, v.Generation, err)
		}

		if deep {
			r.currentDepth++
			resolved, err = r.resolve(resolved, deep)
			r.currentDepth--
			if err != nil {
				return nil, err
			}
		}

		return resolved, nil

	case core.Dict:
		if !deep {
			return v, nil
		}
		return r.resolveDictValues(v)

	case core.Array:
		if !deep {
			return v, nil
		}
		return r.resolveArrayElems(v)

	case *core.Stream:
		if !deep {
			return v, nil
		}

		r.currentDepth++
		resolvedDict, err := r.resolveDictValues(v.Dict)
		r.currentDepth--
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stream dict: %w", err)
		}

		return &core.Stream{
			Dict:  resolvedDict,
			Data:  v.Data,
			Limit: v.Limit,
		}, nil

	default:
		// Primitives resolve to themselves
		return obj, nil
	}
}

func (r *ObjectResolver) resolveDictValues(dict core.Dict) (core.Dict, error) {
	resolved := make(core.Dict, len(dict))
	for key, value := range dict {
		r.currentDepth++
		resolvedValue, err := r.resolve(value, true)
		r.currentDepth--
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dict key %s: %w", key, err)
		}
		resolved[key] = resolvedValue
	}
	return resolved, nil
}

func (r *ObjectResolver) resolveArrayElems(arr core.Array) (core.Array, error) {
	resolved := make(core.Array, len(arr))
	for i, elem := range arr {
		r.currentDepth++
		resolvedElem, err := r.resolve(elem, true)
		r.currentDepth--
		if err != nil {
			return nil, fmt.Errorf("failed to resolve array element %d: %w", i, err)
		}
		resolved[i] = resolvedElem
	}
	return resolved, nil
}

// Reset clears the visited set and depth counter. Call between independent
// resolution operations when reusing one resolver.
func (r *ObjectResolver) Reset() {
	r.visited = make(map[int]bool)
	r.currentDepth = 0
}

// ResolveDict deeply resolves a dictionary and all its values.
func (r *ObjectResolver) ResolveDict(dict core.Dict) (core.Dict, error) {
	defer r.Reset()
	resolved, err := r.ResolveDeep(dict)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Dict), nil
}

// ResolveArray deeply resolves every element of an array.
func (r *ObjectResolver) ResolveArray(arr core.Array) (core.Array, error) {
	defer r.Reset()
	resolved, err := r.ResolveDeep(arr)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Array), nil
}

// ResolveReference resolves a single reference without recursing into the
// target's contents.
func (r *ObjectResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	defer r.Reset()
	return r.reader.ResolveReference(ref)
}

// ResolveReferenceDeep resolves a reference and every reference nested in
// its target.
func (r *ObjectResolver) ResolveReferenceDeep(ref core.IndirectRef) (core.Object, error) {
	defer r.Reset()
	return r.ResolveDeep(ref)
}

// GetObject loads an object by number without resolution.
func (r *ObjectResolver) GetObject(objNum int) (core.Object, error) {
	return r.reader.GetObject(objNum)
}

// GetObjectResolved loads an object by number, following it if the stored
// object is itself a reference.
func (r *ObjectResolver) GetObjectResolved(objNum int) (core.Object, error) {
	obj, err := r.reader.GetObject(objNum)
	if err != nil {
		return nil, err
	}
	defer r.Reset()
	return r.Resolve(obj)
}

// GetObjectResolvedDeep loads and fully expands an object by number.
func (r *ObjectResolver) GetObjectResolvedDeep(objNum int) (core.Object, error) {
	obj, err := r.reader.GetObject(objNum)
	if err != nil {
		return nil, err
	}
	defer r.Reset()
	return r.ResolveDeep(obj)
}
