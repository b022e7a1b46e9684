package ingest

import (
	"reflect"
	"testing"
)

func TestFieldMap_PreservesInsertionOrder(t *testing.T) {
	fm := NewFieldMap()
	fm.Set("Date", "2024-03-05")
	fm.Set("Amount", "10.00")
	fm.Set("Category", "Food")

	want := []string{"Date", "Amount", "Category"}
	if got := fm.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestFieldMap_OverwriteKeepsPosition(t *testing.T) {
	fm := NewFieldMap()
	fm.Set("a", "1")
	fm.Set("b", "2")
	fm.Set("a", "3")

	if got := fm.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
	if v, ok := fm.Get("a"); !ok || v != "3" {
		t.Errorf("Get(a) = %q, %v, want 3, true", v, ok)
	}
	if fm.Len() != 2 {
		t.Errorf("Len() = %d, want 2", fm.Len())
	}
}

func TestFieldMap_EachVisitsInOrder(t *testing.T) {
	fm := NewFieldMap()
	fm.Set("x", "1")
	fm.Set("y", "2")

	var visited []string
	fm.Each(func(key, value string) {
		visited = append(visited, key+"="+value)
	})
	if !reflect.DeepEqual(visited, []string{"x=1", "y=2"}) {
		t.Errorf("Each visited %v", visited)
	}
}
