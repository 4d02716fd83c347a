// Package logger builds slog loggers with the conventions this repository
// uses everywhere: JSON output by default, static service attributes, and
// context extractors that annotate records with request-scoped data such
// as the resolved tenant.
//
//	log := logger.New(
//		logger.WithService("tenancy"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
package logger
