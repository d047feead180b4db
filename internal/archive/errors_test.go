package archive

import (
	"errors"
	"testing"
)

func TestClassifyDriverErrorTransientMarkers(t *testing.T) {
	cases := []string{
		"gocql: no response received from cluster, timeout",
		"connection refused",
		"all hosts unavailable",
	}
	for _, msg := range cases {
		err := classifyDriverError(errors.New(msg))
		if !errors.Is(err, ErrDriverTransient) {
			t.Fatalf("classifyDriverError(%q) = %v, want ErrDriverTransient", msg, err)
		}
	}
}

func TestClassifyDriverErrorDefaultsToPermanent(t *testing.T) {
	err := classifyDriverError(errors.New("invalid query: syntax error near SELECT"))
	if !errors.Is(err, ErrDriverPermanent) {
		t.Fatalf("classifyDriverError() = %v, want ErrDriverPermanent", err)
	}
}

func TestClassifyDriverErrorNilIsNil(t *testing.T) {
	if err := classifyDriverError(nil); err != nil {
		t.Fatalf("classifyDriverError(nil) = %v, want nil", err)
	}
}
