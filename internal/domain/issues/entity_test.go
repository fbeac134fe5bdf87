package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoKey(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    RepoKey
		wantErr bool
	}{
		{name: "valid owner/name", input: "a/b", want: "a/b"},
		{name: "valid with dashes", input: "microsoft/vscode-python", want: "microsoft/vscode-python"},
		{name: "surrounding whitespace trimmed", input: "  a/b  ", want: "a/b"},
		{name: "no separator", input: "not-a-repo", wantErr: true},
		{name: "too many segments", input: "a/b/c", wantErr: true},
		{name: "blank owner", input: " /b", wantErr: true},
		{name: "blank name", input: "a/ ", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "only separator", input: "/", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRepoKey(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRepoKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRepoKeySegments(t *testing.T) {
	key, err := ParseRepoKey("owner/name")
	require.NoError(t, err)

	assert.Equal(t, "owner", key.Owner())
	assert.Equal(t, "name", key.Name())
	assert.Equal(t, "owner/name", key.String())
}
