package server

import (
	"github.com/avelter/qrscan/internal/app"
	"github.com/avelter/qrscan/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// AppConfig holds the scan pipeline configuration. Defaults are used
	// when nil.
	AppConfig *app.Config

	// Logger; a stdout JSON logger is created when nil.
	Logger logging.Logger
}
