package blackboard

import (
	"reflect"
	"testing"
)

type note struct{ Text string }
type score struct{ Points int }

func TestBlackboard(t *testing.T) {
	t.Run("latest of a type", func(t *testing.T) {
		b := New()
		b.Add(note{Text: "first"})
		b.Add(score{Points: 1})
		b.Add(note{Text: "second"})

		got, ok := LatestOf[note](b)
		if !ok {
			t.Fatal("expected a note")
		}
		if got.Text != "second" {
			t.Errorf("expected later artifact to shadow, got %q", got.Text)
		}
		if !HasType[score](b) {
			t.Error("expected score present")
		}
	})

	t.Run("missing type", func(t *testing.T) {
		b := New()
		if _, ok := LatestOf[note](b); ok {
			t.Error("expected no note on empty board")
		}
		if b.Latest(TypeOf[note]()) != nil {
			t.Error("expected nil for missing type")
		}
	})

	t.Run("nil artifacts are ignored", func(t *testing.T) {
		b := New()
		b.Add(nil)
		if b.Len() != 0 {
			t.Errorf("expected empty board, got %d entries", b.Len())
		}
	})

	t.Run("log keeps every entry in order", func(t *testing.T) {
		b := New()
		b.Add(note{Text: "a"})
		b.Add(note{Text: "b"})

		entries := b.All()
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Sequence >= entries[1].Sequence {
			t.Error("expected increasing sequence numbers")
		}
		if entries[0].Value.(note).Text != "a" {
			t.Error("expected insertion order preserved")
		}
	})

	t.Run("types lists distinct artifact types", func(t *testing.T) {
		b := New()
		b.Add(note{})
		b.Add(note{})
		b.Add(score{})

		types := b.Types()
		if len(types) != 2 {
			t.Errorf("expected 2 distinct types, got %d", len(types))
		}
		found := false
		for _, ty := range types {
			if ty == reflect.TypeOf(note{}) {
				found = true
			}
		}
		if !found {
			t.Error("expected note type listed")
		}
	})
}
