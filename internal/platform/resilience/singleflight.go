package resilience

import "golang.org/x/sync/singleflight"

// SingleFlight collapses concurrent calls for the same key into one execution of fn.
// Callers that joined an in-flight call receive its result with shared set to true.
type SingleFlight[T any] struct {
	group singleflight.Group
}

func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (value T, err error, shared bool) {
	out, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	if out != nil {
		value = out.(T)
	}
	return value, err, shared
}

// Forget drops the in-flight record for key so the next caller runs fn again.
func (g *SingleFlight[T]) Forget(key string) {
	g.group.Forget(key)
}
