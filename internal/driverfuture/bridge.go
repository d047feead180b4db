package driverfuture

import "context"

// Row is one decoded result row. The bridge is agnostic to schema; callers
// (the archive's prepared-statement registry) interpret columns.
type Row = map[string]any

// PageFetcher models one page-at-a-time round trip to the driver: the
// analogue of a cassandra ResponseFuture's "fetch_next_page"/add_callbacks
// pair, but pulled rather than pushed, since Go has no foreign-callback
// equivalent to bind to. FetchPage may be called more than once: a
// non-empty nextPageState means more pages remain and the caller should
// call FetchPage again with it.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageState []byte) (rows []Row, nextPageState []byte, err error)
}

// ExecuteFuture submits a paged statement to the driver and bridges its
// (possibly multi-page) completion onto loop, returning a Future of the
// fully concatenated rows.
//
// The fetch itself runs on its own goroutine, standing in for a driver
// callback firing on a foreign thread: it appends each page to an
// accumulator and either requests the next page or, once no page state
// remains, schedules the concatenated result onto the loop. That handoff
// is loop.Schedule, a channel send.
func ExecuteFuture(ctx context.Context, loop *Loop, q PageFetcher) *Future[[]Row] {
	fut := NewFuture[[]Row]()

	go func() {
		var acc []Row
		var pageState []byte

		for {
			rows, next, err := q.FetchPage(ctx, pageState)
			if err != nil {
				loop.Schedule(func() { fut.Complete(nil, err) })
				return
			}
			acc = append(acc, rows...)
			if len(next) == 0 {
				break
			}
			pageState = next
		}

		result := acc
		loop.Schedule(func() { fut.Complete(result, nil) })
	}()

	return fut
}
