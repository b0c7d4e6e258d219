package fuzztests

import "testing"

// seedSources mixes canonical forms, parse-level sugar and malformed inputs
// so the fuzzer starts near both sides of the grammar.
var seedSources = []string{
	"",
	"() -> ()",
	"(d0) -> (d0)",
	"(d0, d1) -> (d0 floordiv 128, d0 mod 128, d1)",
	"(d0, d1)[s0] -> (d0 * s0 + d1)",
	"()[s0] -> (s0 ceildiv 2)",
	"(d0) -> (d0 - 7)",
	"(d0) -> (-d0)",
	"(d0) -> ((d0 + 1) * 2)",
	"(d0) -> (d0 + (d0 + 1))",
	"(d0) -> (9223372036854775807)",
	"(d0) -> (-9223372036854775808)",
	"(d0 -> d0",
	"(d0) -> (d2)",
	"(d0) -> (d0 +",
	"[s0] -> (s0)",
	"(d0) -> (d0) trailing",
}

func addCorpusSeeds(f *testing.F) {
	for _, src := range seedSources {
		f.Add([]byte(src))
	}
}
