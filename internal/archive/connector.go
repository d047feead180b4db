package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arkivio/archivecache/internal/cache"
	"github.com/arkivio/archivecache/internal/cassandra"
	"github.com/arkivio/archivecache/internal/driverfuture"
	"github.com/arkivio/archivecache/internal/timeutil"
)

// metadataTTL is how long GetAttributes/GetAttConfigs results are reused
// before the connector re-queries the configuration tables.
const metadataTTL = 60 * time.Second

// defaultFanOutLimit is how many day-partition fetches run concurrently
// for one GetAttributeData call when the caller doesn't override it.
const defaultFanOutLimit = 50

// cacheKey identifies one day partition of one attribute's series.
type cacheKey struct {
	CS     string
	Attr   string
	Period string
}

// Connector is the read-side orchestrator: it resolves attribute identity,
// decomposes a time range into day partitions, fans out per-day fetches
// with bounded concurrency, and maintains the size-bounded day cache,
// including the live-day merge for the still-growing current partition.
type Connector struct {
	session  cassandra.Session
	registry *Registry
	loop     *driverfuture.Loop

	cache *cache.LRU[cacheKey, Series]

	attributes *cache.TTLMemo[map[string][]AttributeName]
	attConfigs *cache.TTLMemo[map[string]map[string]ConfigRecord]

	zone        *time.Location
	fanOutLimit int
	retryPolicy driverfuture.RetryPolicy
}

// NewConnector wires a Connector from its collaborators. cacheBytes bounds
// the day cache; fanOutLimit bounds how many day-partition fetches run
// concurrently for one GetAttributeData call.
func NewConnector(
	session cassandra.Session,
	registry *Registry,
	loop *driverfuture.Loop,
	cacheBytes int,
	fanOutLimit int,
	zone *time.Location,
	retryPolicy driverfuture.RetryPolicy,
) *Connector {
	if fanOutLimit <= 0 {
		fanOutLimit = defaultFanOutLimit
	}
	if zone == nil {
		zone = time.UTC
	}
	c := &Connector{
		session:     session,
		registry:    registry,
		loop:        loop,
		cache:       cache.NewLRU[cacheKey, Series](cacheBytes, Series.Cost),
		zone:        zone,
		fanOutLimit: fanOutLimit,
		retryPolicy: retryPolicy,
	}
	c.attributes = cache.NewTTLMemo(metadataTTL, c.queryAttributes)
	c.attConfigs = cache.NewTTLMemo(metadataTTL, c.queryAttConfigs)
	return c
}

// GetAttributes lists every configured attribute, grouped by control
// system, memoized for metadataTTL.
func (c *Connector) GetAttributes(ctx context.Context) (map[string][]AttributeName, error) {
	return c.attributes.Get(ctx)
}

// GetAttConfigs lists every attribute's config record, grouped by control
// system then full attribute name, memoized for metadataTTL.
func (c *Connector) GetAttConfigs(ctx context.Context) (map[string]map[string]ConfigRecord, error) {
	return c.attConfigs.Get(ctx)
}

// Healthy probes the configured session by running the attribute-config
// query once, bypassing the TTL memo so a cold failure surfaces
// immediately instead of waiting for a caller to miss the cache.
func (c *Connector) Healthy(ctx context.Context) error {
	_, err := c.queryAttConfigs(ctx)
	return err
}

func (c *Connector) queryAttributes(ctx context.Context) (map[string][]AttributeName, error) {
	rows, err := c.execute(ctx, c.registry.AttributesStatement())
	if err != nil {
		return nil, err
	}
	out := make(map[string][]AttributeName)
	for _, row := range rows {
		cs, _ := row["cs"].(string)
		full, _ := row["att_name"].(string)
		attr, err := ParseAttributeName(full)
		if err != nil {
			log.Printf("[archive] skipping malformed attribute name %q: %v", full, err)
			continue
		}
		out[cs] = append(out[cs], attr)
	}
	return out, nil
}

func (c *Connector) queryAttConfigs(ctx context.Context) (map[string]map[string]ConfigRecord, error) {
	rows, err := c.execute(ctx, c.registry.AttConfigsStatement())
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]ConfigRecord)
	for _, row := range rows {
		cs, _ := row["cs"].(string)
		full, _ := row["att_name"].(string)
		id, _ := row["att_conf_id"].(uuid.UUID)
		dt, _ := row["data_type"].(string)

		perCS, ok := out[cs]
		if !ok {
			perCS = make(map[string]ConfigRecord)
			out[cs] = perCS
		}
		perCS[full] = ConfigRecord{ID: id, DataType: DataType(dt)}
	}
	return out, nil
}

// resolveConfig looks up the config record for attr, returning
// ErrNotFound if the control system or attribute is unknown.
func (c *Connector) resolveConfig(ctx context.Context, attr AttributeName) (ConfigRecord, error) {
	configs, err := c.GetAttConfigs(ctx)
	if err != nil {
		return ConfigRecord{}, err
	}
	perCS, ok := configs[attr.ControlSystem]
	if !ok {
		return ConfigRecord{}, wrapNotFound("control system %q", attr.ControlSystem)
	}
	cfg, ok := perCS[attr.Full()]
	if !ok {
		return ConfigRecord{}, wrapNotFound("attribute %q", attr.Full())
	}
	return cfg, nil
}

// GetAttributeData returns the requested attribute's series, assembled
// from one or more whole day partitions fetched concurrently in chunks of
// fanOutLimit, each chunk finishing before the next starts. Either bound may be nil: t1 defaults to now, t0 defaults
// to t1 minus 24h. The result covers every sample in each touched day
// partition, not just [t0, t1] — returning whole days is what makes the
// day cache and the live-day merge effective across overlapping requests,
// so trimming to an exact window is left to the caller.
func (c *Connector) GetAttributeData(ctx context.Context, full string, t0, t1 *time.Time) (Series, error) {
	attr, err := ParseAttributeName(full)
	if err != nil {
		return Series{}, err
	}
	cfg, err := c.resolveConfig(ctx, attr)
	if err != nil {
		return Series{}, err
	}

	end := time.Now()
	if t1 != nil {
		end = *t1
	}
	start := end.Add(-24 * time.Hour)
	if t0 != nil {
		start = *t0
	}

	periods := timeutil.Days(start, end, c.zone)
	results := make([]Series, len(periods))

	for chunkStart := 0; chunkStart < len(periods); chunkStart += c.fanOutLimit {
		chunkEnd := chunkStart + c.fanOutLimit
		if chunkEnd > len(periods) {
			chunkEnd = len(periods)
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := chunkStart; i < chunkEnd; i++ {
			i, period := i, periods[i]
			g.Go(func() error {
				series, err := c.getPeriod(gctx, attr, cfg, period)
				if err != nil {
					return fmt.Errorf("archive: fetching %s/%s: %w", attr.Full(), period, err)
				}
				results[i] = series
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Series{}, err
		}
	}

	return Concat(attr, results...), nil
}

// getPeriod resolves one day partition's series, taking the live-day merge
// path for today's partition and the cache-then-fetch path for every
// historical one.
func (c *Connector) getPeriod(ctx context.Context, attr AttributeName, cfg ConfigRecord, period string) (Series, error) {
	today := timeutil.TodayPeriod(c.zone)
	if period == today {
		return c.liveDayMerge(ctx, attr, cfg, period)
	}
	if period > today {
		// A future-dated partition never has data; avoid querying for it.
		return Series{Attr: attr}, nil
	}

	key := cacheKey{CS: attr.ControlSystem, Attr: attr.Full(), Period: period}
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	series, err := c.fetchFullDay(ctx, attr, cfg, period)
	if err != nil {
		return Series{}, err
	}
	c.cache.Set(key, series)
	return series, nil
}

// liveDayMerge keeps today's cached partition consistent with newly landed
// rows without re-fetching the whole day: it truncates the cached series
// at the last second it covers and splices in everything from that second
// onward, since the server can only filter on the whole-second data_time
// column and a naive "data_time > latest" re-fetch could either duplicate
// or silently drop same-second samples depending on which side of the
// microsecond boundary they land.
func (c *Connector) liveDayMerge(ctx context.Context, attr AttributeName, cfg ConfigRecord, period string) (Series, error) {
	key := cacheKey{CS: attr.ControlSystem, Attr: attr.Full(), Period: period}

	cached, hit := c.cache.Get(key)
	if !hit {
		series, err := c.fetchFullDay(ctx, attr, cfg, period)
		if err != nil {
			return Series{}, err
		}
		c.cache.Set(key, series)
		return series, nil
	}

	maxInstant := cached.MaxInstant()
	if maxInstant < 0 {
		series, err := c.fetchFullDay(ctx, attr, cfg, period)
		if err != nil {
			return Series{}, err
		}
		c.cache.Set(key, series)
		return series, nil
	}

	latestSec := int64(maxInstant) / timeutil.MicrosPerSecond
	truncated := cached.TruncateBefore(latestSec)

	fresh, err := c.fetchAfter(ctx, attr, cfg, period, latestSec)
	if err != nil {
		return Series{}, err
	}

	merged := Concat(attr, truncated, fresh)
	c.cache.Set(key, merged)
	return merged, nil
}

func (c *Connector) fetchFullDay(ctx context.Context, attr AttributeName, cfg ConfigRecord, period string) (Series, error) {
	stmt, err := c.registry.DataStatement(cfg.DataType)
	if err != nil {
		return Series{}, err
	}
	return c.fetch(ctx, attr, stmt, cfg.ID, period)
}

func (c *Connector) fetchAfter(ctx context.Context, attr AttributeName, cfg ConfigRecord, period string, afterSec int64) (Series, error) {
	stmt, err := c.registry.DataAfterStatement(cfg.DataType)
	if err != nil {
		return Series{}, err
	}
	return c.fetch(ctx, attr, stmt, cfg.ID, period, afterSec)
}

// fetch binds args into stmt, drives it through the driver-future bridge
// with retry, and decodes the resulting rows into a Series.
func (c *Connector) fetch(ctx context.Context, attr AttributeName, stmt string, confID uuid.UUID, period string, extraArgs ...any) (Series, error) {
	args := append([]any{confID, period}, extraArgs...)

	rows, err := driverfuture.Retry(ctx, c.retryPolicy, func() ([]driverfuture.Row, error) {
		fetcher := c.session.Bind(stmt, 0, args...)
		fut := driverfuture.ExecuteFuture(ctx, c.loop, fetcher)
		rows, err := fut.Await(ctx)
		if err != nil {
			return nil, classifyDriverError(err)
		}
		return rows, nil
	})
	if err != nil {
		return Series{}, err
	}
	return decodeSeries(attr, rows)
}

// execute is a single-shot, non-retried query used for metadata lookups
// (attribute lists, config maps) where the caller's TTLMemo already bounds
// how often it runs.
func (c *Connector) execute(ctx context.Context, stmt string) ([]driverfuture.Row, error) {
	fetcher := c.session.Bind(stmt, 0)
	fut := driverfuture.ExecuteFuture(ctx, c.loop, fetcher)
	rows, err := fut.Await(ctx)
	if err != nil {
		return nil, classifyDriverError(err)
	}
	return rows, nil
}

// maxBoundedHistoryEvents caps how many events a time-bounded GetHistory
// call returns; an unbounded call (window == nil) has no such cap.
const maxBoundedHistoryEvents = 10

// GetHistory returns an attribute's configuration event history, optionally
// bounded by window. A bounded window returns at most the 10 most recent
// matching events.
func (c *Connector) GetHistory(ctx context.Context, full string, window *TimeWindow) ([]HistoryEvent, error) {
	attr, err := ParseAttributeName(full)
	if err != nil {
		return nil, err
	}
	cfg, err := c.resolveConfig(ctx, attr)
	if err != nil {
		return nil, err
	}

	var stmt string
	args := []any{cfg.ID}
	if window != nil {
		stmt = c.registry.HistoryWindowStatement()
		args = append(args, window.From.Seconds(), window.To.Seconds())
	} else {
		stmt = c.registry.HistoryStatement()
	}

	fetcher := c.session.Bind(stmt, 0, args...)
	fut := driverfuture.ExecuteFuture(ctx, c.loop, fetcher)
	rows, err := fut.Await(ctx)
	if err != nil {
		return nil, classifyDriverError(err)
	}
	if window != nil && len(rows) > maxBoundedHistoryEvents {
		rows = rows[:maxBoundedHistoryEvents]
	}

	events := make([]HistoryEvent, 0, len(rows))
	for _, row := range rows {
		t, _ := row["time"].(time.Time)
		event, _ := row["event"].(string)
		events = append(events, HistoryEvent{
			Timestamp: timeutil.InstantFromTime(t),
			Event:     event,
		})
	}
	return events, nil
}

// GetParameters returns the newest parameter row strictly before endTime,
// or nil if the attribute has none.
func (c *Connector) GetParameters(ctx context.Context, full string, endTime time.Time) (*Parameter, error) {
	attr, err := ParseAttributeName(full)
	if err != nil {
		return nil, err
	}
	cfg, err := c.resolveConfig(ctx, attr)
	if err != nil {
		return nil, err
	}

	fetcher := c.session.Bind(c.registry.LatestParameterStatement(), 0, cfg.ID, endTime)
	fut := driverfuture.ExecuteFuture(ctx, c.loop, fetcher)
	rows, err := fut.Await(ctx)
	if err != nil {
		return nil, classifyDriverError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	recv, _ := row["recv_time"].(time.Time)
	fields := make(map[string]any, len(row)-1)
	for k, v := range row {
		if k == "recv_time" {
			continue
		}
		fields[k] = v
	}
	return &Parameter{RecvTime: timeutil.InstantFromTime(recv), Fields: fields}, nil
}

// decodeSeries converts raw driver rows into an ordered Series. Rows are
// expected already ordered by (data_time, data_time_us) by the prepared
// statement; decodeSeries does not re-sort.
func decodeSeries(attr AttributeName, rows []driverfuture.Row) (Series, error) {
	samples := make([]Sample, 0, len(rows))
	for _, row := range rows {
		sec, err := asInt64(row["data_time"])
		if err != nil {
			return Series{}, fmt.Errorf("archive: decoding data_time: %w", err)
		}
		us, err := asInt64(row["data_time_us"])
		if err != nil {
			return Series{}, fmt.Errorf("archive: decoding data_time_us: %w", err)
		}
		errDesc, _ := row["error_desc"].(string)
		samples = append(samples, Sample{
			Seconds:   sec,
			Micros:    us,
			Value:     row["value_r"],
			ErrorDesc: errDesc,
		})
	}
	return Series{Attr: attr, Samples: samples}, nil
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case time.Time:
		return t.Unix(), nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
