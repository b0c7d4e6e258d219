// Package fuzztests houses Go fuzz harnesses that exercise the textual map
// parser. Its goal is to guard the no-panic contract on arbitrary input and
// to keep successful parses canonical: whatever parses must round-trip
// through its printed form to the identical handle.
package fuzztests
