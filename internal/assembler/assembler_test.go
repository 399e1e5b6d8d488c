package assembler

import "testing"

func collect(results *[]Result) EmitFunc {
	return func(r Result) {
		*results = append(*results, r)
	}
}

func TestAssembler_PartialsThenTurnComplete(t *testing.T) {
	var results []Result
	a := New(collect(&results))

	a.OnPartial("Hel")
	a.OnPartial("lo ")
	a.OnTurnComplete()

	want := []Result{
		{Text: "Hel"},
		{Text: "Hello "},
		{Text: "Hello ", IsFinal: true},
	}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d: %v", len(want), len(results), results)
	}
	for i, w := range want {
		if results[i] != w {
			t.Errorf("result %d: expected %+v, got %+v", i, w, results[i])
		}
	}
	if a.Pending() != "" {
		t.Errorf("expected empty buffer after turn complete, got %q", a.Pending())
	}
}

func TestAssembler_TurnCompleteWithEmptyBuffer(t *testing.T) {
	var results []Result
	a := New(collect(&results))

	a.OnTurnComplete()

	if len(results) != 0 {
		t.Errorf("expected no results for empty buffer, got %v", results)
	}
}

func TestAssembler_DeltasConcatenateNotReplace(t *testing.T) {
	var results []Result
	a := New(collect(&results))

	a.OnPartial("one ")
	a.OnPartial("two ")
	a.OnPartial("three")

	last := results[len(results)-1]
	if last.Text != "one two three" {
		t.Errorf("expected accumulated text 'one two three', got %q", last.Text)
	}
	if last.IsFinal {
		t.Error("expected partial results to be non-final")
	}
}

func TestAssembler_SecondTurnStartsEmpty(t *testing.T) {
	var results []Result
	a := New(collect(&results))

	a.OnPartial("first")
	a.OnTurnComplete()
	a.OnPartial("second")
	a.OnTurnComplete()

	finals := 0
	for _, r := range results {
		if r.IsFinal {
			finals++
			if r.Text != "first" && r.Text != "second" {
				t.Errorf("unexpected final text %q", r.Text)
			}
		}
	}
	if finals != 2 {
		t.Errorf("expected 2 finals, got %d", finals)
	}
}

func TestAssembler_ResetDiscardsWithoutEmitting(t *testing.T) {
	var results []Result
	a := New(collect(&results))

	a.OnPartial("abandoned")
	n := len(results)
	a.Reset()
	a.OnTurnComplete()

	if len(results) != n {
		t.Errorf("expected no emissions after reset, got %v", results[n:])
	}
	if a.Pending() != "" {
		t.Errorf("expected empty buffer after reset, got %q", a.Pending())
	}
}
