package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type item struct{ name string }

func (i item) Validate() error { return NotEmpty(i.name, "name") }

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
	}{
		{"all ok", All(nil, nil), ""},
		{"all first", All(nil, errors.New("a"), errors.New("b")), "a"},
		{"each", Each([]item{{"x"}, {" "}}), "item 1: name must not be empty"},
		{"map", Map([]string{"a", ""}, NotEmpty, "dirs"), "dirs[1] must not be empty"},
		{"duplicates", NoDuplicates([]string{"a", "b", "a"}, "dirs"), "dirs contains duplicate value: a"},
		{"allowed", MatchesAllowed("x", []string{"a", "b"}, "level"), "level must be one of [a b], got x"},
		{"allowed ok", MatchesAllowed("b", []string{"a", "b"}, "level"), ""},
		{"negative", NotNegative(-time.Second, "ttl"), "ttl must not be negative, got -1s"},
		{"zero", NotNegative(0, "ttl"), ""},
		{"tags", HasNoTags("a{{b}}", "chain"), "chain must not contain template tags"},
		{"no tags", HasNoTags("frame", "chain"), ""},
		{"ext", FileExtension(".curly", "extension"), ""},
		{"ext no dot", FileExtension("curly", "extension"), `extension must look like .ext, got "curly"`},
		{"ext dot only", FileExtension(".", "extension"), `extension must look like .ext, got "."`},
		{"ext path", FileExtension("./x", "extension"), `extension must look like .ext, got "./x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == "" {
				assert.NoError(t, tt.err)
				return
			}
			assert.EqualError(t, tt.err, tt.wantErr)
		})
	}
}
