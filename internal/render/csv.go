// Package render encodes archive.Series into the wire formats external
// consumers expect: a tab-separated CSV block and a Grafana-compatible
// JSON array.
package render

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/arkivio/archivecache/internal/archive"
)

// CSV writes one block per attribute: a header line with the attribute
// name, then one "t_us\tvalue_r" line per sample. Attributes are written
// in sorted name order so the output is deterministic across calls.
func CSV(w io.Writer, data map[string]archive.Series) error {
	bw := bufio.NewWriter(w)

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(bw, "%s\n", name); err != nil {
			return fmt.Errorf("render: writing csv header for %q: %w", name, err)
		}
		for _, samp := range data[name].Samples {
			if _, err := fmt.Fprintf(bw, "%d\t%v\n", int64(samp.Instant()), samp.Value); err != nil {
				return fmt.Errorf("render: writing csv row for %q: %w", name, err)
			}
		}
	}
	return bw.Flush()
}
