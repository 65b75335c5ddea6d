// Package config loads courseflow client configuration.
//
// Values come from DefaultConfig, then an optional YAML file, then
// environment variables named after the yaml path with the COURSEFLOW
// prefix:
//
//	cfg, err := config.NewLoader().
//		WithConfigPath("courseflow.yaml").
//		Load()
//
//	COURSEFLOW_NETWORK_BASE_URL=https://courses.example.com/api/
//	COURSEFLOW_CACHE_BACKEND=redis
//	COURSEFLOW_LOG_OUTPUT_PATHS=stdout,/var/log/courseflow.log
package config
