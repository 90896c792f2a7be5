// Package retry provides bounded retry loops for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable max attempts,
// initial delay, and maximum delay. [WithFixedInterval] is the fixed-backoff
// variant used for teardown-ordering races during stack destroy. A
// [WithRetryIf] predicate limits retries to errors classified as transient;
// anything else, and anything wrapped with [Fatal], is returned immediately.
package retry
