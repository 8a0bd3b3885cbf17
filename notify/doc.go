// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify defines the outbound push-notification boundary.

Notifications are category-tagged (voting, reminder) with a priority
and a data map for deep-linking. Three Notifier implementations:

  - KafkaNotifier: publishes to a Kafka topic, keyed by recipient
  - Memory: in-process capture for tests
  - Nop: discards, used when no push channel is configured

Delivery and retry are the consuming channel's responsibility; Send
only guarantees the record was accepted by the transport.
*/
package notify
