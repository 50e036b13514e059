// Package logger builds *slog.Logger values for flagkit services.
//
// WithEnvironment picks text output at debug level for development and JSON
// at info level for staging and production. Context extractors add
// per-request attributes, such as the request ID, to every record logged
// with a context:
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "flagkit"),
//		logger.WithContextExtractors(requestid.LoggerExtractor),
//	)
//
// The attribute helpers keep key names consistent across packages. Error
// returns an empty attribute for a nil error, so it can be passed unchecked.
package logger
