// Package utils exposes reusable helpers consumed by the migrator commands.
//
// It houses the ConfigurationLoader (Viper, dotenv files, and environment
// overrides), the LoggerFactory (zap), the CommandContextAccessor, and the
// FlushingWriter used for line-oriented console progress.
package utils
