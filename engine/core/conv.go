package core

// CloneMap returns a shallow copy of the given map. Nil input returns nil so
// callers can distinguish "absent" from "empty".
func CloneMap[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CloneSlice returns a shallow copy of the given slice. Nil input returns nil.
func CloneSlice[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	out := make(S, len(s))
	copy(out, s)
	return out
}
