package analysis

import "testing"

func TestBeautifyWrapsNumbers(t *testing.T) {
	got := beautify("p95 latency was 250 ms across 3 runs")
	want := `p<span class="fw-bold">95</span> latency was <span class="fw-bold">250</span> ms across <span class="fw-bold">3</span> runs`
	if got != want {
		t.Fatalf("beautify mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestBeautifyLeavesPlainTextAlone(t *testing.T) {
	in := "no numbers here"
	if got := beautify(in); got != in {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}
