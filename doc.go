// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the voting engine API server.

The voting engine runs electronic voting sessions for municipal
environmental council (CODEMA) meetings: nominal roll-call presence,
one vote per councilor, quorum and majority evaluation, tamper-evident
audit hashes, and realtime fan-out of session events.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=voting.db AUDIT_HASH_SALT=... go run main.go

Or with flags:

	go run main.go -p 3419 -d "postgres://..." -t postgres --audit-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string
  - AUDIT_HASH_SALT (--audit-salt): Secret for integrity HMACs

Optional settings:

  - PORT (-p): Server port (default: 3419)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - REDIS_ADDR (--redis): Redis address for cross-process event fan-out
  - KAFKA_BROKERS (--kafka-brokers): Kafka brokers for notification dispatch

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (sessions, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Domain and request/response types
  - session: Domain service (validation, lifecycle, tallying, audit)
  - tally: Pure quorum and majority calculator
  - store: Persistence over database/sql
  - integrity: Hash chain and ID generation
  - realtime: Event bus (memory or redis) and session monitor
  - notify: Notification dispatch (kafka or no-op)
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
