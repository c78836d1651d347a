// Package logger provides structured logging for apikit using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("apicall")
//	log.Debug("dispatch", logger.Fields(logger.FieldAPI, "users", logger.FieldMethod, "GET"))
package logger
