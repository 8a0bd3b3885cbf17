// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first (godotenv);
explicit environment variables and flags win over it.

# Config Fields

  - Port: Server listen port (default: 3419)
  - DatabaseURL: sqlite path or postgres connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - AuditHashSalt: Secret for tamper-evidence HMAC (required)
  - RedisAddr/RedisPassword/RedisDB: realtime fan-out (optional)
  - KafkaBrokers/KafkaTopic: push-notification channel (optional)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	--audit-salt     Audit hash salt
	--redis          Redis address
	--redis-password Redis password
	--redis-db       Redis database number
	--kafka-brokers  Comma-separated broker list
	--kafka-topic    Notification topic

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	AUDIT_HASH_SALT → --audit-salt
	REDIS_ADDR      → --redis
	REDIS_PASSWORD  → --redis-password
	KAFKA_BROKERS   → --kafka-brokers
	KAFKA_TOPIC     → --kafka-topic

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - AUDIT_HASH_SALT must be provided
  - DATABASE_TYPE, when set, must be sqlite or postgres

Redis and Kafka settings are optional: without them the engine runs
with the in-process event bus and discards notifications.
*/
package cliparse
