// Package common holds what the API server, the client and the CLI share:
// the server configuration (ServerConfig, FieldLimits) and the logging setup.
//
// Logging uses the logger facade of dragonboat (github.com/lni/dragonboat/v4/logger).
// Every package declares its logger once with logger.GetLogger("<name>"),
// InitLoggers installs a factory that backs these loggers with named zap
// loggers and sets their level.
package common
