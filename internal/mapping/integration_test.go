package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/translate"
)

func TestRegistry_DrivesParserAndTranslator(t *testing.T) {
	r, err := LoadDir("testdata/mappings")
	require.NoError(t, err)

	parser := jdql.NewParser(jdql.WithEnumConverter(r))
	q, err := parser.ParseSelect("FROM Person WHERE status = Status.ACTIVE AND level = Level.HIGH AND fullName = nickname ORDER BY fullName", "")
	require.NoError(t, err)

	sel, err := translate.New().Select(q, r)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM people WHERE (status = "ACTIVE" AND level = 3 AND name = nickname) ORDER BY name ASC`,
		sel.String())
}

func TestRegistry_UnknownIdentifierFallsBackToPath(t *testing.T) {
	r, err := LoadDir("testdata/mappings")
	require.NoError(t, err)

	parser := jdql.NewParser(jdql.WithEnumConverter(r))
	q, err := parser.ParseSelect("FROM Person WHERE status = Status.DELETED", "")
	require.NoError(t, err)
	require.NotNil(t, q.Where)
	assert.Equal(t, query.NewPath("Status.DELETED"), q.Where.Value)
}
