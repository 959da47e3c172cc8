package vdom

import (
	"fmt"
	"testing"
)

func keyedList(n int, reverse bool) []*Node {
	items := make([]*Node, n)
	for i := 0; i < n; i++ {
		k := i
		if reverse {
			k = n - 1 - i
		}
		key := fmt.Sprintf("item-%d", k)
		items[i] = El("li", Key(key), Class("row"), key)
	}
	return []*Node{El("ul", ID("list"), items)}
}

func BenchmarkElementCreation(b *testing.B) {
	b.Run("simple li", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = El("li", Class("card"))
		}
	})

	b.Run("with children", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = El("div", Class("card"),
				El("h1", "Title"),
				El("p", "Content"),
			)
		}
	})
}

func BenchmarkDiff(b *testing.B) {
	b.Run("identical 100", func(b *testing.B) {
		prev, next := keyedList(100, false), keyedList(100, false)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = Diff(prev, next)
		}
	})

	b.Run("reversed 100", func(b *testing.B) {
		prev, next := keyedList(100, false), keyedList(100, true)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = Diff(prev, next)
		}
	})

	b.Run("append 1000", func(b *testing.B) {
		prev, next := keyedList(999, false), keyedList(1000, false)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = Diff(prev, next)
		}
	})
}

func BenchmarkQuerySelector(b *testing.B) {
	tree := NewTree(keyedList(1000, false))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.QuerySelectorAll(".row")
	}
}
