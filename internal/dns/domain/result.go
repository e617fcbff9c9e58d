package domain

// Result holds exactly one of a failure (Left) or a success (Right).
// A Left always carries a fallback of the success type, so a consumer can
// take Value() without checking which side it holds.
type Result[E any, S any] struct {
	err   E
	value S
	left  bool
}

// Outcome is the result of forwarding one DNS message.
type Outcome = Result[DNSError, Message]

// Left builds a failed Result carrying a usable fallback.
func Left[E any, S any](err E, fallback S) Result[E, S] {
	return Result[E, S]{err: err, value: fallback, left: true}
}

// Right builds a successful Result.
func Right[E any, S any](value S) Result[E, S] {
	return Result[E, S]{value: value}
}

// IsLeft reports whether r holds a failure.
func (r Result[E, S]) IsLeft() bool { return r.left }

// IsRight reports whether r holds a success.
func (r Result[E, S]) IsRight() bool { return !r.left }

// Err returns the failure and true for a Left, or the zero E and false.
func (r Result[E, S]) Err() (E, bool) {
	if !r.left {
		var zero E
		return zero, false
	}
	return r.err, true
}

// Value returns the success value, or the fallback of a Left.
func (r Result[E, S]) Value() S { return r.value }

// MapRight transforms the success value. A Left is returned unchanged.
func (r Result[E, S]) MapRight(f func(S) S) Result[E, S] {
	if r.left {
		return r
	}
	return Right[E](f(r.value))
}

// MapFallback transforms the fallback carried by a Left. A Right is
// returned unchanged.
func (r Result[E, S]) MapFallback(f func(S) S) Result[E, S] {
	if !r.left {
		return r
	}
	return Left(r.err, f(r.value))
}

// MapLeft transforms the failure of a Left, keeping its fallback. A Right
// passes through with its value.
func MapLeft[E any, E2 any, S any](r Result[E, S], f func(E) E2) Result[E2, S] {
	if !r.left {
		return Right[E2](r.value)
	}
	return Left(f(r.err), r.value)
}
