/*
Package stream provides the reactive data-binding core: one-shot Streams,
rebindable BackedStreams and the combinators that compose them.

A Stream is a value that becomes available at most once:

	exec := executor.NewImmediate()
	s, resolver := stream.New[int](exec)
	s.Listen(owner, func(v int) { fmt.Println(v) }, nil)
	resolver.Succeed(5) // prints 5

A BackedStream forwards whichever source currently backs it, and ignores late
results from sources it no longer backs:

	headers := stream.NewBacked[BlockGroup](exec)
	headers.Listen(owner, showHeaders, showError)
	headers.BackWithStream(querier.ChildrenOfBlockWithID(first, mode))
	headers.BackWithStream(querier.ChildrenOfBlockWithID(second, mode)) // first is now stale

Composition:

	doubled := stream.Transform(s, func(v int) stream.Source[int] {
		return stream.Value(exec, v*2)
	})
	rows := stream.Join(exec, children...)
	pair := stream.Join2[Block, LastAccessed](block, access)

Threading:

No type in this package takes a lock on its own state. All state changes and
listener callbacks run as tasks on the stream's executor.Executor, which
serialises them. Resolvers, Subscription.Cancel and Owner.Close may be called
from any goroutine; the accessors Value, Result, Resolved and Active must be
called on the executor.

Lifetimes:

Listeners are scoped to an Owner. Closing the Owner cancels them. Streams do
not reference owners, so an abandoned owner is never kept alive by a stream.
ExtendLifetimeUntilFirstResult opts out of owner scoping for fire-and-forget
work.
*/
package stream
