package integration

import (
	"fmt"
	"time"
)

// TestUsername generates a unique username per test run
func TestUsername(suffix string) string {
	return fmt.Sprintf("user-%d-%s", time.Now().UnixNano(), suffix)
}

// TestPassword is the shared password for seeded test users
const TestPassword = "TestPassword123!"

// TestCardNumber is a well-formed Visa test number
const TestCardNumber = "4111111111111111"
