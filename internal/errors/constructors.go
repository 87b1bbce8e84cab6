package errors

// Convenience constructors for common error patterns

// Expression errors

func ParseFailed(reason string) *CronError {
	return New(CategoryParse, SeverityError, reason)
}

func ValidationFailed(field, reason string) *CronError {
	return New(CategoryValidation, SeverityError, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Registry errors

func NotAMember() *CronError {
	return New(CategoryMembership, SeverityError, "entry does not belong to this registry")
}

func RegistryDestroyed() *CronError {
	return New(CategoryRegistry, SeverityError, "registry has been destroyed")
}

func HorizonExhausted() *CronError {
	return New(CategoryHorizon, SeverityWarning, "no trigger within the search horizon")
}

// Config errors

func ConfigNotFound(path string) *CronError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(reason string) *CronError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("reason", reason)
}

// Daemon errors

func DaemonError(message string) *CronError {
	return New(CategoryDaemon, SeverityError, message)
}

func WrapDaemon(err error, message string) *CronError {
	return Wrap(err, CategoryDaemon, SeverityError, message)
}
