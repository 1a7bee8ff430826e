package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("")
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if String("abc") != Sum([]byte("abc")) {
		t.Error("String and Sum disagree")
	}
}

func TestSame(t *testing.T) {
	if !Same([]byte("a =\n"), []byte("a =\n")) {
		t.Error("identical content should match")
	}
	if Same([]byte("a =\n"), []byte("b =\n")) {
		t.Error("different content should not match")
	}
}
