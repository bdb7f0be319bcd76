// Package sysutil provides best-effort access to OS-level DNS facilities.
// Failures here are never fatal to a benchmark, callers surface them as
// warnings and proceed.
package sysutil

import "time"

// commandTimeout bounds every external command invocation.
const commandTimeout = 10 * time.Second
