package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// InitLogger настраивает общий логгер. Повторные вызовы меняют только уровень.
func InitLogger(level logrus.Level) *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	})
	logger.SetLevel(level)
	return logger
}

func GetLogger() *logrus.Logger {
	if logger == nil {
		return InitLogger(logrus.InfoLevel)
	}
	return logger
}

// ParseLevel понимает "debug", "warn" и т.п.; при ошибке — info.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
