package checksum

import (
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	if got := Sum([]byte("abc")); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("Sum = %s", got)
	}
}

func TestSumReaderMatchesSum(t *testing.T) {
	sum, n, err := SumReader(strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || sum != Sum([]byte("abc")) {
		t.Errorf("SumReader = %s, %d", sum, n)
	}
}

func TestETag(t *testing.T) {
	if got := ETag(Sum([]byte("abc"))); got != `"ba7816bf8f01cfea"` {
		t.Errorf("ETag = %s", got)
	}
	if got := ETag("ab"); got != `"ab"` {
		t.Errorf("short ETag = %s", got)
	}
}
