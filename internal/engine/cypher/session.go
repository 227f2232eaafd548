package cypher

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// resultIterator abstracts the subset of neo4j.ResultWithContext this
// package uses, so it can be faked in tests without a live driver.
type resultIterator interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// sessionRunner abstracts the subset of neo4j.SessionWithContext this
// package uses.
type sessionRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (resultIterator, error)
	Close(ctx context.Context) error
}

// sessionFactory creates a new sessionRunner for a given context and
// database name.
type sessionFactory func(ctx context.Context, database string) sessionRunner

// neo4jSessionAdapter wraps a real neo4j.SessionWithContext to implement
// sessionRunner.
type neo4jSessionAdapter struct {
	session neo4j.SessionWithContext
}

func (a *neo4jSessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (resultIterator, error) {
	return a.session.Run(ctx, cypher, params)
}

func (a *neo4jSessionAdapter) Close(ctx context.Context) error {
	return a.session.Close(ctx)
}

// newNeo4jSessionFactory returns a sessionFactory backed by a real neo4j
// driver. When multiDatabase is false, database is always ignored and the
// driver's implicit default database is used instead — the in-memory
// Cypher variant degrades this way when it reports no multi-database
// support.
func newNeo4jSessionFactory(driver neo4j.DriverWithContext, multiDatabase bool) sessionFactory {
	return func(ctx context.Context, database string) sessionRunner {
		cfg := neo4j.SessionConfig{}
		if multiDatabase && database != "" {
			cfg.DatabaseName = database
		}
		return &neo4jSessionAdapter{session: driver.NewSession(ctx, cfg)}
	}
}
