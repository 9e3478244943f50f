package postgres

import (
	"os"
	"testing"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
