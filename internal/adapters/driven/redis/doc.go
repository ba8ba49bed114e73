// Package redis provides Redis-backed adapters built on go-redis: a vector
// index, a per-document deletion lock and a requeue list consumed by the
// ingestion pipeline.
//
// All keys are namespaced by the configured prefix so one Redis database
// can be shared with other services.
//
// Tests that need a live server run when SERCHA_TEST_REDIS_ADDR is set.
package redis
