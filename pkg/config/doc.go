// Package config loads the service configuration from the environment.
//
// Every package that needs settings exposes a struct with env tags (pg.Config,
// redis.Config, httpserver.Config and so on). The service composes them and
// parses the whole tree in one call:
//
//	type Config struct {
//		DB    pg.Config
//		Redis redis.Config
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// A .env file in the working directory is read before the first parse.
// Use LoadEnv for other files. Structs implementing Validator are checked
// after parsing and a failure is reported as ErrInvalidConfig.
package config
