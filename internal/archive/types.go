// Package archive implements the archive connector: attribute resolution,
// day-partition fan-out, the size-bounded LRU cache, and the live-day merge
// algorithm that keeps the in-progress day's cached series consistent with
// newly landed rows.
package archive

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/arkivio/archivecache/internal/timeutil"
)

// DataType selects one of the fixed set of per-type data tables an
// attribute's rows live in. The array_* entries cover the vector-valued
// attributes real HDB++ deployments carry alongside the scalar tables.
type DataType string

const (
	ScalarDevBooleanRO DataType = "scalar_devboolean_ro"
	ScalarDevBooleanRW DataType = "scalar_devboolean_rw"
	ScalarDevDoubleRO  DataType = "scalar_devdouble_ro"
	ScalarDevDoubleRW  DataType = "scalar_devdouble_rw"
	ScalarDevEncodedRO DataType = "scalar_devencoded_ro"
	ScalarDevEncodedRW DataType = "scalar_devencoded_rw"
	ScalarDevFloatRO   DataType = "scalar_devfloat_ro"
	ScalarDevFloatRW   DataType = "scalar_devfloat_rw"
	ScalarDevLong64RO  DataType = "scalar_devlong64_ro"
	ScalarDevLong64RW  DataType = "scalar_devlong64_rw"
	ScalarDevLongRO    DataType = "scalar_devlong_ro"
	ScalarDevLongRW    DataType = "scalar_devlong_rw"
	ScalarDevShortRO   DataType = "scalar_devshort_ro"
	ScalarDevShortRW   DataType = "scalar_devshort_rw"
	ScalarDevStateRO   DataType = "scalar_devstate_ro"
	ScalarDevStateRW   DataType = "scalar_devstate_rw"
	ScalarDevStringRO  DataType = "scalar_devstring_ro"
	ScalarDevStringRW  DataType = "scalar_devstring_rw"
	ScalarDevUCharRO   DataType = "scalar_devuchar_ro"
	ScalarDevUCharRW   DataType = "scalar_devuchar_rw"
	ScalarDevULong64RO DataType = "scalar_devulong64_ro"
	ScalarDevULong64RW DataType = "scalar_devulong64_rw"
	ScalarDevULongRO   DataType = "scalar_devulong_ro"
	ScalarDevULongRW   DataType = "scalar_devulong_rw"
	ScalarDevUShortRO  DataType = "scalar_devushort_ro"
	ScalarDevUShortRW  DataType = "scalar_devushort_rw"

	ArrayDevDoubleRO DataType = "array_devdouble_ro"
	ArrayDevDoubleRW DataType = "array_devdouble_rw"
	ArrayDevLongRO   DataType = "array_devlong_ro"
	ArrayDevLongRW   DataType = "array_devlong_rw"
)

// AllDataTypes lists every data type the registry prepares statements for.
var AllDataTypes = []DataType{
	ScalarDevBooleanRO, ScalarDevBooleanRW,
	ScalarDevDoubleRO, ScalarDevDoubleRW,
	ScalarDevEncodedRO, ScalarDevEncodedRW,
	ScalarDevFloatRO, ScalarDevFloatRW,
	ScalarDevLong64RO, ScalarDevLong64RW,
	ScalarDevLongRO, ScalarDevLongRW,
	ScalarDevShortRO, ScalarDevShortRW,
	ScalarDevStateRO, ScalarDevStateRW,
	ScalarDevStringRO, ScalarDevStringRW,
	ScalarDevUCharRO, ScalarDevUCharRW,
	ScalarDevULong64RO, ScalarDevULong64RW,
	ScalarDevULongRO, ScalarDevULongRW,
	ScalarDevUShortRO, ScalarDevUShortRW,
	ArrayDevDoubleRO, ArrayDevDoubleRW,
	ArrayDevLongRO, ArrayDevLongRW,
}

// Table returns the backing table name for the data type, att_<data_type>.
func (d DataType) Table() string {
	return "att_" + string(d)
}

// AttributeName is the 5-tuple identity of a signal.
type AttributeName struct {
	ControlSystem string
	Domain        string
	Family        string
	Member        string
	Attr          string
}

// Full renders the attribute name in its wire form, cs/domain/family/member/attr.
func (a AttributeName) Full() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", a.ControlSystem, a.Domain, a.Family, a.Member, a.Attr)
}

// ParseAttributeName splits a full attribute name into its 5-tuple using
// timeutil.SplitAttr for the control-system boundary.
func ParseAttributeName(full string) (AttributeName, error) {
	cs, rest, err := timeutil.SplitAttr(full)
	if err != nil {
		return AttributeName{}, err
	}
	parts := splitFour(rest)
	if parts == nil {
		return AttributeName{}, fmt.Errorf("archive: attribute %q does not have domain/family/member/attr shape", full)
	}
	return AttributeName{
		ControlSystem: cs,
		Domain:        parts[0],
		Family:        parts[1],
		Member:        parts[2],
		Attr:          parts[3],
	}, nil
}

func splitFour(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	if len(out) != 4 {
		return nil
	}
	return out
}

// ConfigRecord maps an attribute to its archive identity: the opaque
// config id (a real uuid.UUID here, matching HDB++'s att_conf_id uuid
// column) and the data type selecting which table its samples live in.
type ConfigRecord struct {
	ID       uuid.UUID
	DataType DataType
}

// HistoryEvent is one row of an attribute's event history.
type HistoryEvent struct {
	Timestamp timeutil.Instant
	Event     string
}

// Parameter is the newest parameter row strictly before a requested end
// time, or nil if none exists.
type Parameter struct {
	RecvTime timeutil.Instant
	Fields   map[string]any
}

// TimeWindow bounds a history query; nil means unbounded.
type TimeWindow struct {
	From timeutil.Instant
	To   timeutil.Instant
}
