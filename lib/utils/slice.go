package utils

func Map[T any, R any](a []T, mapper func(T) R) []R {
	res := make([]R, len(a))
	for i, v := range a {
		res[i] = mapper(v)
	}
	return res
}

// TakeRight returns the up-to-n last elements of a.
func TakeRight[T any](a []T, n int) []T {
	if len(a) <= n {
		return a
	}
	return a[len(a)-n:]
}
