package archive

import (
	"sort"

	"github.com/arkivio/archivecache/internal/timeutil"
)

// Sample is one archived value at a microsecond-resolution instant.
type Sample struct {
	Seconds   int64 // whole-second data_time
	Micros    int64 // data_time_us, in [0, 1_000_000)
	Value     any
	ErrorDesc string
}

// Instant returns the sample's combined microsecond-resolution timestamp.
func (s Sample) Instant() timeutil.Instant {
	return timeutil.Instant(s.Seconds*timeutil.MicrosPerSecond + s.Micros)
}

// Series is an ordered, non-decreasing run of samples for one attribute
// over some time window, possibly spanning several day partitions.
type Series struct {
	Attr    AttributeName
	Samples []Sample
}

// Cost is the series' admission cost for the LRU cache: one unit of "byte
// size" per sample's fixed-width fields, which is close enough to the
// wire size to bound memory meaningfully without reflecting over Value.
func (s Series) Cost() int {
	const perSample = 32
	return len(s.Samples) * perSample
}

// MaxInstant returns the instant of the series' last sample, or -1 if the
// series is empty. It is the anchor the live-day merge truncates against.
func (s Series) MaxInstant() timeutil.Instant {
	if len(s.Samples) == 0 {
		return -1
	}
	return s.Samples[len(s.Samples)-1].Instant()
}

// TruncateBefore returns a copy of s containing only samples whose whole
// second component is strictly less than sec. It is used to drop the
// boundary second from a cached series before splicing in a fresher fetch
// of that same second, since the server can only filter on data_time and
// not on data_time_us.
func (s Series) TruncateBefore(sec int64) Series {
	cut := len(s.Samples)
	for i, samp := range s.Samples {
		if samp.Seconds >= sec {
			cut = i
			break
		}
	}
	out := make([]Sample, cut)
	copy(out, s.Samples[:cut])
	return Series{Attr: s.Attr, Samples: out}
}

// Concat appends series in the given order (expected to already be in
// calendar order) into one series, deduplicating any
// (Seconds, Micros) pair that appears in more than one input — which can
// happen at a live-day splice boundary where the truncated tail and the
// fresh head both cover the same second.
func Concat(attr AttributeName, parts ...Series) Series {
	var total int
	for _, p := range parts {
		total += len(p.Samples)
	}
	out := make([]Sample, 0, total)
	var lastSec, lastUs int64
	haveLast := false
	for _, p := range parts {
		for _, samp := range p.Samples {
			if haveLast && samp.Seconds == lastSec && samp.Micros == lastUs {
				continue
			}
			out = append(out, samp)
			lastSec, lastUs = samp.Seconds, samp.Micros
			haveLast = true
		}
	}
	return Series{Attr: attr, Samples: out}
}

// Trim returns the subset of s.Samples within [from, to], inclusive on
// both ends, via binary search since Samples is always sorted.
func (s Series) Trim(from, to timeutil.Instant) Series {
	lo := sort.Search(len(s.Samples), func(i int) bool {
		return s.Samples[i].Instant() >= from
	})
	hi := sort.Search(len(s.Samples), func(i int) bool {
		return s.Samples[i].Instant() > to
	})
	if lo >= hi {
		return Series{Attr: s.Attr}
	}
	out := make([]Sample, hi-lo)
	copy(out, s.Samples[lo:hi])
	return Series{Attr: s.Attr, Samples: out}
}

// Resample downsamples s to at most one sample per bucket of width
// bucketUs microseconds, replacing each bucket's samples with their
// arithmetic mean and rebasing the timestamp to the bucket's left
// boundary. Buckets with no numeric samples are omitted; a non-numeric
// sample (string, bool, error placeholder) cannot contribute to a mean and
// is skipped rather than averaged in.
func (s Series) Resample(bucketUs int64) Series {
	if bucketUs <= 0 || len(s.Samples) == 0 {
		return s
	}

	out := make([]Sample, 0, len(s.Samples))
	var sum float64
	var count int
	var boundary int64
	haveBucket := false

	flush := func() {
		if count == 0 {
			return
		}
		out = append(out, Sample{
			Seconds: boundary / timeutil.MicrosPerSecond,
			Micros:  boundary % timeutil.MicrosPerSecond,
			Value:   sum / float64(count),
		})
	}

	for _, samp := range s.Samples {
		b := (int64(samp.Instant()) / bucketUs) * bucketUs
		if !haveBucket || b != boundary {
			flush()
			boundary = b
			sum, count = 0, 0
			haveBucket = true
		}
		if v, ok := toFloat64(samp.Value); ok {
			sum += v
			count++
		}
	}
	flush()

	return Series{Attr: s.Attr, Samples: out}
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
