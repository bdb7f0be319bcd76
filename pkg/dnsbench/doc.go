// Package dnsbench implements the dnspulse benchmarking engine. It measures
// real DNS resolution latency of public and custom resolvers over plain UDP,
// TCP, DNS-over-TLS and DNS-over-HTTPS transports and reduces the raw query
// results into comparable per-resolver statistics.
//
// The entrypoint of the package is the Benchmark struct, which drives a full
// benchmark based on the provided BenchmarkConfig and produces a
// BenchmarkReport.
package dnsbench
