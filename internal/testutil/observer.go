package testutil

import "sync"

// RecordingObserver renames through a lookup table and records every call.
//
// Calls are recorded as "entity:Person", "field:Person.name" and
// "sort:Person.age". Names missing from Rename are returned unchanged.
//
// Implements translate.Observer.
type RecordingObserver struct {
	Rename map[string]string

	mu    sync.Mutex
	calls []string
}

// NewRecordingObserver creates an observer with the given renames.
func NewRecordingObserver(rename map[string]string) *RecordingObserver {
	return &RecordingObserver{Rename: rename}
}

func (o *RecordingObserver) FireEntity(entity string) string {
	o.record("entity:" + entity)
	return o.rename(entity)
}

func (o *RecordingObserver) FireSelectField(entity, field string) string {
	o.record("field:" + entity + "." + field)
	return o.rename(field)
}

func (o *RecordingObserver) FireSortProperty(entity, property string) string {
	o.record("sort:" + entity + "." + property)
	return o.rename(property)
}

// Calls returns the recorded calls in order.
func (o *RecordingObserver) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.calls))
	copy(out, o.calls)
	return out
}

func (o *RecordingObserver) record(call string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call)
}

func (o *RecordingObserver) rename(name string) string {
	if renamed, ok := o.Rename[name]; ok {
		return renamed
	}
	return name
}
