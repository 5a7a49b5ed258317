// Package logger builds *slog.Logger instances for sessionkit services.
//
// New takes functional options for level, encoding, output and static
// attributes. ContextExtractor callbacks add request scoped values, such as
// the request id, to every record logged with a context:
//
//	log := logger.New(
//		logger.WithConfig(cfg.Log),
//		logger.WithEnvironment(cfg.AppEnv, "sessiond"),
//		logger.WithContextExtractors(requestIDFromContext),
//	)
//	log.InfoContext(ctx, "session finalized", logger.SessionAction(d.Action))
//
// The attribute helpers keep key names consistent across packages. Error
// and RequestID return an empty attribute for zero input, which slog drops.
package logger
