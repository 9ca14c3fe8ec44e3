// Package capture runs complete captures: authorization check, root lookup,
// collection and statistics. BatchCapturer captures several processes
// concurrently with a bounded number of goroutines.
package capture
