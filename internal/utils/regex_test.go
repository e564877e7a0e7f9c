package utils

import (
	"testing"
)

func TestLazyRegex(t *testing.T) {
	lr := NewLazyRegex(`^\d+$`)

	// First call compiles
	re := lr.Re()
	if !re.MatchString("123") {
		t.Error("expected match for '123'")
	}
	if re.MatchString("abc") {
		t.Error("expected no match for 'abc'")
	}

	// Second call returns same instance
	re2 := lr.Re()
	if re != re2 {
		t.Error("expected same regexp instance on second call")
	}
}

func TestLazyRegexConcurrent(t *testing.T) {
	lr := NewLazyRegex(`\w+`)
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func() {
			re := lr.Re()
			if !re.MatchString("hello") {
				t.Error("expected match")
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestLazyRegexReplaceAll(t *testing.T) {
	lr := NewLazyRegex(`\s+`)
	if got := lr.ReplaceAll("a  b\tc", " "); got != "a b c" {
		t.Errorf("got %q", got)
	}
}
