// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime fans session mutations out to subscribers and drives
each open session's time-based side effects.

# Bus

Bus is a publish/subscribe boundary scoped by session ID. Two
implementations:

  - MemoryBus: in-process registry, synchronous dispatch
  - RedisBus: Redis pub/sub, one channel per session

Subscribe returns an unsubscribe function; calling it fully detaches
the handler, and calling it twice is safe.

# Monitor

Monitor owns the scheduled work of open sessions:

  - vote reminders to present-but-not-voted members at 50/75/90% of the
    session timeout (the last one high priority)
  - a recurring quorum check that alerts present members when fewer
    than 60% of them have participated
  - the final approved/rejected notification when the session closes,
    observed via the session-update event

Every timer and subscription is owned by the session's watch and torn
down on close, cancellation or Unwatch. Re-watching a session replaces
the previous watch instead of duplicating it.
*/
package realtime
