package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordingObserver(t *testing.T) {
	obs := NewRecordingObserver(map[string]string{"People": "Person", "fullName": "name"})

	assert.Equal(t, "Person", obs.FireEntity("People"))
	assert.Equal(t, "name", obs.FireSelectField("People", "fullName"))
	assert.Equal(t, "age", obs.FireSortProperty("People", "age"))
	assert.Equal(t, []string{"entity:People", "field:People.fullName", "sort:People.age"}, obs.Calls())
}

func TestRecordingObserver_CallsIsACopy(t *testing.T) {
	obs := NewRecordingObserver(nil)
	obs.FireEntity("Person")

	calls := obs.Calls()
	calls[0] = "changed"
	assert.Equal(t, []string{"entity:Person"}, obs.Calls())
}
