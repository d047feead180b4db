package archive

import (
	"context"
	"fmt"
	"log"

	"github.com/arkivio/archivecache/internal/cassandra"
)

// Statement kinds that do not vary by data type.
const (
	stmtAttributes       = "SELECT cs, att_conf_id, att_name FROM att_conf"
	stmtAttConfigs       = "SELECT cs, att_name, att_conf_id, data_type FROM att_conf"
	stmtHistory          = "SELECT att_conf_id, time, event FROM att_history_event WHERE att_conf_id = ?"
	stmtHistoryWindow    = "SELECT att_conf_id, time, event FROM att_history_event WHERE att_conf_id = ? AND time >= ? AND time <= ? ORDER BY time DESC LIMIT 10"
	stmtLatestParameters = "SELECT recv_time, label, unit, format, description FROM att_parameter WHERE att_conf_id = ? AND recv_time < ? ORDER BY recv_time DESC LIMIT 1"
)

// dataStmt holds the pair of prepared-statement templates for one data
// type: the plain per-day fetch and the "after a given second" variant the
// live-day merge uses.
type dataStmt struct {
	data      string
	dataAfter string
}

func templatesFor(dt DataType) dataStmt {
	table := dt.Table()
	return dataStmt{
		data: fmt.Sprintf(
			"SELECT data_time, data_time_us, value_r, error_desc FROM %s WHERE att_conf_id = ? AND period = ? ORDER BY data_time, data_time_us",
			table,
		),
		dataAfter: fmt.Sprintf(
			"SELECT data_time, data_time_us, value_r, error_desc FROM %s WHERE att_conf_id = ? AND period = ? AND data_time >= ? ORDER BY data_time, data_time_us",
			table,
		),
	}
}

// Registry holds, per data type, the statement templates the connector
// binds arguments into before handing them to the session. Types whose
// statements fail to "prepare" (here: fail the template check performed
// once at startup) are recorded as unprepared and degrade to ErrUnprepared
// rather than taking down the whole registry.
type Registry struct {
	session cassandra.Session

	templates  map[DataType]dataStmt
	unprepared map[DataType]error
}

// NewRegistry builds statement templates for every known data type and
// checks each with probe; nothing is sent to the session. A probe failure
// for a single type is logged and that type is marked unprepared; the
// registry itself never fails to construct.
func NewRegistry(ctx context.Context, session cassandra.Session) *Registry {
	r := &Registry{
		session:    session,
		templates:  make(map[DataType]dataStmt, len(AllDataTypes)),
		unprepared: make(map[DataType]error),
	}
	for _, dt := range AllDataTypes {
		tmpl := templatesFor(dt)
		if err := r.probe(tmpl); err != nil {
			log.Printf("[registry] data type %s not usable, degrading to unprepared: %v", dt, err)
			r.unprepared[dt] = err
			continue
		}
		r.templates[dt] = tmpl
	}
	return r
}

// probe is a hook for a future real PREPARE round trip; today it only
// rejects an obviously malformed template, since binding is otherwise
// infallible until execution time.
func (r *Registry) probe(tmpl dataStmt) error {
	if tmpl.data == "" || tmpl.dataAfter == "" {
		return fmt.Errorf("empty statement template")
	}
	return nil
}

// DataStatement returns the plain per-day fetch template for dt, or
// ErrUnprepared if dt degraded at startup.
func (r *Registry) DataStatement(dt DataType) (string, error) {
	tmpl, err := r.templateFor(dt)
	if err != nil {
		return "", err
	}
	return tmpl.data, nil
}

// DataAfterStatement returns the "data_time >= ?" fetch template used by
// the live-day merge to pull only rows the cache doesn't already hold.
func (r *Registry) DataAfterStatement(dt DataType) (string, error) {
	tmpl, err := r.templateFor(dt)
	if err != nil {
		return "", err
	}
	return tmpl.dataAfter, nil
}

func (r *Registry) templateFor(dt DataType) (dataStmt, error) {
	if _, bad := r.unprepared[dt]; bad {
		return dataStmt{}, wrapUnprepared("data type %s", dt)
	}
	tmpl, ok := r.templates[dt]
	if !ok {
		return dataStmt{}, wrapUnprepared("data type %s has no registered statement", dt)
	}
	return tmpl, nil
}

// AttributesStatement lists every configured attribute name.
func (r *Registry) AttributesStatement() string { return stmtAttributes }

// AttConfigsStatement lists every attribute's config id and data type.
func (r *Registry) AttConfigsStatement() string { return stmtAttConfigs }

// HistoryStatement returns the unbounded event-history template.
func (r *Registry) HistoryStatement() string { return stmtHistory }

// HistoryWindowStatement returns the time-bounded event-history template.
func (r *Registry) HistoryWindowStatement() string { return stmtHistoryWindow }

// LatestParameterStatement returns the "most recent parameter row before a
// given time" template.
func (r *Registry) LatestParameterStatement() string { return stmtLatestParameters }
