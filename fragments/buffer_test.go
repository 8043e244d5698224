package fragments_test

import (
	"errors"
	"testing"

	"github.com/hollowpine/dbuswire/fragments"
)

func TestBufferPeekConsume(t *testing.T) {
	var b fragments.Buffer
	b.Append([]byte("hello"))

	if got, err := b.Peek(3); err != nil || string(got) != "hel" {
		t.Fatalf("Peek(3) = %q, %v, want %q, nil", got, err, "hel")
	}
	if b.Len() != 5 {
		t.Fatalf("Len() = %d after Peek, want 5 (Peek must not consume)", b.Len())
	}
	b.Consume(3)
	if b.Len() != 2 {
		t.Fatalf("Len() = %d after Consume(3), want 2", b.Len())
	}
	if got, err := b.Peek(2); err != nil || string(got) != "lo" {
		t.Fatalf("Peek(2) = %q, %v, want %q, nil", got, err, "lo")
	}
}

func TestBufferNeedMore(t *testing.T) {
	var b fragments.Buffer
	b.Append([]byte("ab"))
	if _, err := b.Peek(3); !errors.Is(err, fragments.ErrNeedMore) {
		t.Fatalf("Peek(3) on 2-byte buffer = %v, want ErrNeedMore", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d after failed Peek, want 2 (no side effects)", b.Len())
	}
}

func TestBufferSavepointRollback(t *testing.T) {
	var b fragments.Buffer
	b.Append([]byte("abcdef"))

	mark := b.Savepoint()
	b.Consume(4)
	if b.Len() != 2 {
		t.Fatalf("Len() = %d after Consume(4), want 2", b.Len())
	}
	b.Rollback(mark)
	if b.Len() != 6 {
		t.Fatalf("Len() = %d after Rollback, want 6", b.Len())
	}
}

func TestBufferCompact(t *testing.T) {
	var b fragments.Buffer
	b.Append([]byte("abcdef"))
	b.Consume(4)
	b.Compact()
	if b.Len() != 2 {
		t.Fatalf("Len() = %d after Compact, want 2", b.Len())
	}
	got, err := b.Peek(2)
	if err != nil || string(got) != "ef" {
		t.Fatalf("Peek(2) after Compact = %q, %v, want %q, nil", got, err, "ef")
	}
}

func TestBufferAppendAfterConsume(t *testing.T) {
	var b fragments.Buffer
	b.Append([]byte("abc"))
	b.Consume(3)
	b.Append([]byte("def"))
	got, err := b.Peek(3)
	if err != nil || string(got) != "def" {
		t.Fatalf("Peek(3) = %q, %v, want %q, nil", got, err, "def")
	}
}
