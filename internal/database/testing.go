package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/valuation-engine/internal/config"
)

// TestConfigEnv names the config file used by database-backed tests
const TestConfigEnv = "VALUATION_TEST_CONFIG"

// SetupTestDB connects to the database named by VALUATION_TEST_CONFIG and
// applies the schema. The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	path := os.Getenv(TestConfigEnv)
	if path == "" {
		t.Skipf("%s not set, skipping database test", TestConfigEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}
