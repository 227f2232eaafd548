package cypher

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// bootstrap creates the constraints and indexes this adapter relies on. It
// is idempotent: CREATE CONSTRAINT/INDEX IF NOT EXISTS, safe to call on
// every start-up.
func bootstrap(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{})
	defer func() { _ = session.Close(ctx) }()

	statements := []string{
		`CREATE CONSTRAINT IF NOT EXISTS FOR (g:Graph) REQUIRE g.id IS UNIQUE`,
		`CREATE INDEX IF NOT EXISTS FOR (n:GraphNode) ON (n.graph_id, n.node_id)`,
	}

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("cypher: bootstrap statement %q: %w", stmt, err)
		}
	}
	return nil
}
