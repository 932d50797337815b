package services

import (
	"io"
	"log/slog"
	"time"

	"github.com/carddemo/carddemo-api/internal/database"
	pkglogger "github.com/carddemo/carddemo-api/pkg/logger"
)

// testLogger discards output so test runs stay quiet
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

// testRetryer uses a tiny backoff so retry paths stay fast under test
func testRetryer() *database.Retryer {
	return database.NewRetryer(3, time.Millisecond, testLogger())
}
