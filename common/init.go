package common

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/zap"

	"github.com/fuchsia74/gemini-pool/common/logger"
)

var (
	Port   = flag.Int("port", 3000, "the listening port")
	LogDir = flag.String("log-dir", "", "specify the log directory")
)

var StartTime = time.Now().Unix()

// Version is overridden at build time via -ldflags.
var Version = "v0.1.0"

func Init() {
	flag.Parse()

	if *LogDir != "" {
		var err error
		*LogDir, err = filepath.Abs(*LogDir)
		if err != nil {
			logger.Logger.Fatal("resolve log dir", zap.Error(err))
		}
		if _, err := os.Stat(*LogDir); os.IsNotExist(err) {
			err = os.Mkdir(*LogDir, 0777)
			if err != nil {
				logger.Logger.Fatal("create log dir", zap.Error(err))
			}
		}
		logger.LogDir = *LogDir
	}
}
