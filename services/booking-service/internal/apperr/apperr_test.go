package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("book: %w", Conflict("slot no longer available"))
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %s", KindOf(err))
	}
	if MessageOf(err) != "slot no longer available" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
	if KindOf(errors.New("boom")) != KindDependency {
		t.Fatal("expected unclassified error to be a dependency failure")
	}
	if MessageOf(errors.New("boom")) != "internal error" {
		t.Fatal("expected generic message for unclassified error")
	}
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("storage unavailable", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindNotFound:   http.StatusNotFound,
		KindConflict:   http.StatusConflict,
		KindDependency: http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Fatalf("%s: got %d want %d", kind, got, want)
		}
	}
}
