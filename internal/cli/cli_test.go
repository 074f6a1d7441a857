package cli

import (
	"strings"
	"testing"
)

func TestPrintVector(t *testing.T) {
	var buf strings.Builder
	atoms := []string{"O", "H", "H"}
	vec := []float64{
		0.002, -0.001, 0,
		-0.001, 0.003, 0,
		-0.001, -0.002, 0,
	}
	if err := printVector(&buf, atoms, vec, "gradient"); err != nil {
		t.Fatalf("printVector: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "gradient (hartree/bohr):\n") {
		t.Fatalf("missing header in output:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 4 {
		t.Fatalf("output has %d lines, want 4:\n%s", got, out)
	}
}

func TestPrintVectorLengthMismatch(t *testing.T) {
	var buf strings.Builder
	atoms := []string{"O", "H", "H"}

	// A reply carrying fewer components than the geometry demands must
	// error out rather than slice past the vector's end.
	err := printVector(&buf, atoms, []float64{0.002, -0.001, 0}, "gradient")
	if err == nil {
		t.Fatal("expected error for short vector")
	}
	if !strings.Contains(err.Error(), "want 9") {
		t.Fatalf("error = %v, want component count mismatch", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial output written before the length check:\n%s", buf.String())
	}

	if err := printVector(&buf, atoms, nil, "forces"); err == nil {
		t.Fatal("expected error for empty vector")
	}
}
