// Package utils exposes reusable helpers consumed by the toolrun commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging for the CLI, along
// with the FlushingWriter used to stream captured output.
package utils
