package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLoggerWritesFile() {
	path := filepath.Join(suite.T().TempDir(), "debug.log")

	log, err := NewLogger(Options{Level: "debug", FilePath: path, Quiet: true})
	suite.Require().NoError(err)

	log.Info("LOGGED IN SUCCESSFULLY", zap.String("client", "A123"))
	_ = log.Sync()

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(content), "LOGGED IN SUCCESSFULLY")
	suite.Contains(string(content), `"client":"A123"`)
}

func (suite *LoggerTestSuite) TestInvalidLevel() {
	_, err := NewLogger(Options{Level: "loud", Quiet: true})
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestNopLogger() {
	log := NewNopLogger()
	suite.NotNil(log.Logger)
	log.Info("ignored")
	suite.NoError(log.Sync())
}
