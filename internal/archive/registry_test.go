package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegistryPreparesEveryDataType(t *testing.T) {
	r := NewRegistry(context.Background(), &fakeSession{})
	for _, dt := range AllDataTypes {
		if _, err := r.DataStatement(dt); err != nil {
			t.Fatalf("DataStatement(%s) error: %v", dt, err)
		}
	}
}

func TestDataAfterStatementIncludesBoundaryFilter(t *testing.T) {
	r := NewRegistry(context.Background(), &fakeSession{})
	stmt, err := r.DataAfterStatement(ScalarDevDoubleRO)
	if err != nil {
		t.Fatalf("DataAfterStatement() error: %v", err)
	}
	if !strings.Contains(stmt, "data_time >= ?") {
		t.Fatalf("DataAfterStatement() = %q, want a data_time >= ? filter", stmt)
	}
}

func TestTemplateForUnknownTypeIsUnprepared(t *testing.T) {
	r := NewRegistry(context.Background(), &fakeSession{})
	r.unprepared["bogus"] = errors.New("forced")

	if _, err := r.DataStatement("bogus"); !errors.Is(err, ErrUnprepared) {
		t.Fatalf("DataStatement() error = %v, want ErrUnprepared", err)
	}
}
