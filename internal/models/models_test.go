// file: internal/models/models_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayScanKeepsCommaElements(t *testing.T) {
	var skills StringArray

	require.NoError(t, skills.Scan([]byte(`{"C++, Go",Python}`)))
	assert.Equal(t, StringArray{"C++, Go", "Python"}, skills)
}

func TestStringArrayRoundTrip(t *testing.T) {
	in := StringArray{`say "hi"`, "a,b", `back\slash`}

	v, err := in.Value()
	require.NoError(t, err)

	var out StringArray
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in, out)
}
