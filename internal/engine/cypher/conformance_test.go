package cypher

import (
	"testing"

	"github.com/graphd/graphd/internal/dbtest"
	"github.com/graphd/graphd/internal/enginetest"
)

// TestConformanceAgainstLiveNeo4j runs the shared engine conformance suite
// against a disposable containerized Neo4j instance. Skipped under -short.
func TestConformanceAgainstLiveNeo4j(t *testing.T) {
	driver := dbtest.SetupNeo4j(t)
	if err := bootstrap(t.Context(), driver); err != nil {
		t.Fatalf("bootstrapping schema: %v", err)
	}

	e := &Engine{
		name:          "native",
		driver:        driver,
		newSession:    newNeo4jSessionFactory(driver, false),
		multiDatabase: false,
		logger:        testLogger(),
	}
	t.Cleanup(func() { _ = e.Close() })

	enginetest.Run(t, e)
}
