// Package logger configures the global zerolog logger.
//
// Output can be split by level into rolling files, written to the console
// and shipped to datadog at the same time. Every log statement is counted
// by level in prometheus.
package logger
