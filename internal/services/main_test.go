package services

import (
	"os"
	"testing"

	"spaceblog/internal/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	// В тестах логи не нужны, но сервисы пишут через пакетный логгер.
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}
