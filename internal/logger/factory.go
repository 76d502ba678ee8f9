package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupGlobal configures the package-level logger used by the library packages.
func SetupGlobal(debug bool, formatter string) {
	log.SetOutput(os.Stderr)
	switch formatter {
	case "json":
		log.SetFormatter(log.JSONFormatter)
	case "logfmt":
		log.SetFormatter(log.LogfmtFormatter)
	default:
		log.SetFormatter(log.TextFormatter)
	}
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
		return
	}
	log.SetLevel(log.WarnLevel)
}
