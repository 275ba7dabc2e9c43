package leicaerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs_MatchesKind(t *testing.T) {
	err := New(BadData, "parsing dimension")
	if !errors.Is(err, IsBadData) {
		t.Error("errors.Is(err, IsBadData) = false, want true")
	}
	if errors.Is(err, IsIo) {
		t.Error("errors.Is(err, IsIo) = true, want false")
	}
}

func TestWrap_PreservesUnderlyingError(t *testing.T) {
	cause := errors.New("disk exploded")
	err := Wrap(Io, "reading tile", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true (Unwrap must expose the cause)")
	}
	if !errors.Is(err, IsIo) {
		t.Error("errors.Is(err, IsIo) = false, want true")
	}
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	if err := Wrap(BadData, "op", nil); err != nil {
		t.Errorf("Wrap(kind, op, nil) = %v, want nil", err)
	}
}

func TestError_MessageIncludesOp(t *testing.T) {
	err := Newf(FormatNotSupported, "directory %d is not tiled", 3)
	want := "directory 3 is not tiled"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(Io, "opening file", fmt.Errorf("permission denied"))
	if wrapped.Error() != "opening file: permission denied" {
		t.Errorf("Error() = %q, want op-prefixed message", wrapped.Error())
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		FormatNotSupported: "format not supported",
		BadData:            "bad data",
		Io:                 "I/O error",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
