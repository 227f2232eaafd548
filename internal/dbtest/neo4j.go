// Package dbtest provides container-backed test fixtures for engine
// implementations that need a live database, gated behind -short so the
// ordinary test run stays fast and hermetic.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jtest "github.com/testcontainers/testcontainers-go/modules/neo4j"
)

// Neo4jImage is the image used for container-backed Cypher adapter tests.
const Neo4jImage = "docker.io/neo4j:5-community"

// SetupNeo4j starts a disposable Neo4j container and returns a connected
// driver, torn down automatically at the end of t. Skips under -short.
func SetupNeo4j(t *testing.T) neo4j.DriverWithContext {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	t.Parallel()

	ctx := context.Background()

	container, err := neo4jtest.Run(ctx, Neo4jImage, neo4jtest.WithoutAuthentication())
	if err != nil {
		t.Fatalf("starting neo4j container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("terminating neo4j container: %v", err)
		}
	})

	boltURL, err := container.BoltUrl(ctx)
	if err != nil {
		t.Fatalf("resolving bolt url: %v", err)
	}

	driver, err := neo4j.NewDriverWithContext(boltURL, neo4j.NoAuth())
	if err != nil {
		t.Fatalf("opening neo4j driver: %v", err)
	}
	t.Cleanup(func() { _ = driver.Close(ctx) })

	if err := verifyConnectivityWithRetries(ctx, driver); err != nil {
		t.Fatalf("verifying neo4j connectivity: %v", err)
	}
	return driver
}

func verifyConnectivityWithRetries(ctx context.Context, driver neo4j.DriverWithContext) error {
	const retries = 5
	const pause = 200 * time.Millisecond

	err := driver.VerifyConnectivity(ctx)
	for r := 0; r < retries && err != nil; r++ {
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = driver.VerifyConnectivity(ctx)
	}
	return err
}
