package parsers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

func TestParsePlainList_Basics(t *testing.T) {
	input := `
# comment at top
Example.COM
example.com.#inline comment

	sub.Example.com.
# explicit suffix markers
*.wild.example.com
.root.example.org
example.com   # duplicate
*.example.com
not a name
user@example.com
`
	now := time.Unix(1723550000, 0)
	got, err := ParsePlainList(strings.NewReader(input), "test-source", log.NewNoopLogger(), now)
	require.NoError(t, err)

	want := []struct {
		name string
		kind domain.BlockRuleKind
	}{
		{"example.com", domain.BlockRuleExact},
		{"sub.example.com", domain.BlockRuleExact},
		{"wild.example.com", domain.BlockRuleSuffix},
		{"root.example.org", domain.BlockRuleSuffix},
		{"example.com", domain.BlockRuleSuffix},
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.name, got[i].Name, i)
		assert.Equal(t, w.kind, got[i].Kind, i)
		assert.Equal(t, "test-source", got[i].Source)
		assert.True(t, got[i].AddedAt.Equal(now))
	}
}

func TestParsePlainList_EmptyAndCommentsOnly(t *testing.T) {
	got, err := ParsePlainList(strings.NewReader("\n# only comments\n   # another\n\n"), "s", log.NewNoopLogger(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParsePlainList_ConstructorErrorsAreSkipped(t *testing.T) {
	input := "example.com\n*.sub.example.com\n"

	got, err := ParsePlainList(strings.NewReader(input), "", log.NewNoopLogger(), time.Unix(1, 0))
	require.NoError(t, err)
	assert.Empty(t, got, "empty source")

	got, err = ParsePlainList(strings.NewReader(input), "src", log.NewNoopLogger(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got, "zero time")
}

func TestParsePlainList_ScannerError(t *testing.T) {
	big := bytes.Repeat([]byte{'a'}, 70000)
	got, err := ParsePlainList(bytes.NewReader(big), "src", log.NewNoopLogger(), time.Now())
	assert.Error(t, err)
	assert.Nil(t, got)
}
