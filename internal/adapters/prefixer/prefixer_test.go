package prefixer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/prefixer"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestPrefixer_Prefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "property prefixes",
			in:   "a{user-select:none;color:red}",
			want: "a {\n" +
				"  -webkit-user-select: none;\n" +
				"  -moz-user-select: none;\n" +
				"  -ms-user-select: none;\n" +
				"  user-select: none;\n" +
				"  color: red;\n" +
				"}\n",
		},
		{
			name: "value prefix inside media query",
			in:   "@media screen {\n  .nav { position: sticky; }\n}\n",
			want: "@media screen {\n" +
				"  .nav {\n" +
				"    position: -webkit-sticky;\n" +
				"    position: sticky;\n" +
				"  }\n" +
				"}\n",
		},
		{
			name: "existing prefix kept once",
			in:   ".x { -webkit-backdrop-filter: blur(2px); backdrop-filter: blur(2px); }",
			want: ".x {\n" +
				"  -webkit-backdrop-filter: blur(2px);\n" +
				"  backdrop-filter: blur(2px);\n" +
				"}\n",
		},
		{
			name: "untouched declarations",
			in:   "body { margin: 0; }",
			want: "body {\n  margin: 0;\n}\n",
		},
		{
			name: "at rule statement",
			in:   "@charset \"UTF-8\";",
			want: "@charset \"UTF-8\";\n",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	p := prefixer.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Prefix([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestPrefixer_Prefix_Idempotent(t *testing.T) {
	p := prefixer.New()
	src := []byte(".a{appearance:none;hyphens:auto}\n@media print{.b{position:sticky;mask:url(m.svg)}}")

	once, err := p.Prefix(src)
	require.NoError(t, err)
	twice, err := p.Prefix(once)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestPrefixer_Prefix_SyntaxError(t *testing.T) {
	_, err := prefixer.New().Prefix([]byte("a { : red; }"))
	require.Error(t, err)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, domain.ErrPrefixFailed.Error(), zErr.Message())
	assert.Contains(t, zErr.Metadata(), "offset")
}
