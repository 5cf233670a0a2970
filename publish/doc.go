/*
Package publish provides ready-made experiment.Handler implementations for
publishing results: an in-memory sink, a structured-logging sink, a
Prometheus collector, Redis and SQL persistence, and a retrying decorator
that can wrap any of them.

Every sink embeds experiment.DefaultHandler, so unless documented otherwise
it keeps the default policy: always enabled and escalating guarded
failures. Logging is the exception, swallowing guarded failures after
logging them.

Sinks that leave the process serialize results through Record, a flattened
JSON form that carries cleaned values only.
*/
package publish
