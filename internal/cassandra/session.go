// Package cassandra adapts github.com/gocql/gocql into the narrow
// page-fetching interface internal/driverfuture drives. It is an explicit
// adapter type that owns a *gocql.Session rather than mutating one in
// place.
package cassandra

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/arkivio/archivecache/internal/driverfuture"
)

// DefaultPageSize is the page size used when a caller doesn't override it.
const DefaultPageSize = 50000

// Session binds a prepared-statement template and its arguments into a
// driverfuture.PageFetcher. It is the only surface the archive registry
// needs from the driver.
type Session interface {
	Bind(stmt string, pageSize int, args ...any) driverfuture.PageFetcher
	Close()
}

// gocqlSession is the concrete adapter around a real Cassandra session.
type gocqlSession struct {
	session  *gocql.Session
	pageSize int
}

// NewSession connects to the given contact points/keyspace and returns a
// Session. pageSize <= 0 uses DefaultPageSize.
func NewSession(contactPoints []string, keyspace string, pageSize int) (Session, error) {
	cluster := gocql.NewCluster(contactPoints...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("cassandra: connecting to %v/%s: %w", contactPoints, keyspace, err)
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &gocqlSession{session: session, pageSize: pageSize}, nil
}

func (s *gocqlSession) Close() {
	s.session.Close()
}

func (s *gocqlSession) Bind(stmt string, pageSize int, args ...any) driverfuture.PageFetcher {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	return &pageFetcher{session: s.session, stmt: stmt, args: args, pageSize: pageSize}
}

// pageFetcher drives one bound statement's paging via gocql's manual
// PageState API: each FetchPage call issues one query with the page state
// handed back by the previous call, fetching one page at a time instead of
// gocql's usual transparent auto-paging Scanner.
type pageFetcher struct {
	session  *gocql.Session
	stmt     string
	args     []any
	pageSize int
}

func (f *pageFetcher) FetchPage(ctx context.Context, pageState []byte) ([]driverfuture.Row, []byte, error) {
	q := f.session.Query(f.stmt, f.args...).WithContext(ctx).PageSize(f.pageSize)
	if len(pageState) > 0 {
		q = q.PageState(pageState)
	}

	iter := q.Iter()

	var rows []driverfuture.Row
	for {
		row := map[string]any{}
		if !iter.MapScan(row) {
			break
		}
		rows = append(rows, row)
	}

	next := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, classifyGocqlError(err)
	}
	// gocql signals "no more pages" with an empty (possibly non-nil) slice.
	if len(next) == 0 {
		return rows, nil, nil
	}
	return rows, next, nil
}

// classifyGocqlError wraps driver errors without changing their identity,
// so callers further up can still distinguish transient from permanent
// failures by inspecting the underlying gocql sentinel via errors.Is/As.
func classifyGocqlError(err error) error {
	return fmt.Errorf("cassandra: %w", err)
}
