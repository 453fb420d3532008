// Package resolver follows PDF indirect references.
//
// PDF objects refer to one another with references like "5 0 R". This
// package turns references into the objects they name, either one hop at a
// time or by fully expanding a tree:
//
//	res := resolver.NewResolver(reader)
//	obj, err := res.Resolve(ref)
//	expanded, err := res.ResolveDeep(obj)
//
// Resolution is bounded. A configurable depth limit caps nesting:
//
//	res := resolver.NewResolver(reader, resolver.WithMaxDepth(50))
//
// and a per-tree visited set reports reference cycles as errors instead of
// looping. An object shared by several branches of the same tree is not a
// cycle and resolves in each.
package resolver
