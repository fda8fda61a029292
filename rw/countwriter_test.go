package rw

import (
	"bytes"
	"errors"
	"testing"
)

func TestCountWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCountWriter(&buf)
	for _, s := range []string{"abc", "", "defg"} {
		if _, err := cw.Write([]byte(s)); err != nil {
			t.Fatal(err)
		}
	}
	if cw.BytesWritten() != 7 || buf.String() != "abcdefg" {
		t.Errorf("n=%d buf=%q", cw.BytesWritten(), buf.String())
	}
}

func TestLimitWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewLimitWriter(&buf, 5)
	if _, err := cw.Write([]byte("abcd")); err != nil {
		t.Fatal(err)
	}
	n, err := cw.Write([]byte("ef"))
	if !errors.Is(err, ErrLimitExceeded) || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err = cw.Write([]byte("e")); err != nil {
		t.Errorf("exactly at the limit is allowed: %v", err)
	}
	if buf.String() != "abcde" || cw.BytesWritten() != 5 {
		t.Errorf("buf=%q n=%d", buf.String(), cw.BytesWritten())
	}
}
