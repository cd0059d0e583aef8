package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreProcessor_Process(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		contains  []string
		decls     int
		wantErr   string
		structsIn int
	}{
		{
			name:      "include injects struct once",
			source:    "//@oxy:include texel_info\n//@oxy:include texel_info\n",
			contains:  []string{"struct TexelInfo"},
			structsIn: 1,
		},
		{
			name:      "group generates declaration and struct",
			source:    "//@oxy:group 3 1 storage_uniform info texel_info\n",
			contains:  []string{"struct TexelInfo", "@group(3) @binding(1) var<uniform> info: TexelInfo;"},
			decls:     1,
			structsIn: 1,
		},
		{
			name:      "group after include does not duplicate struct",
			source:    "//@oxy:include screen\n//@oxy:group 0 0 storage_read screen screen\n",
			contains:  []string{"var<storage, read> screen: ScreenUniform;"},
			decls:     1,
			structsIn: 1,
		},
		{
			name:     "provider only records",
			source:   "//@oxy:provider 1 2 externs\n@group(1) @binding(2) var<uniform> u: f32;",
			contains: []string{"@group(1) @binding(2) var<uniform> u: f32;"},
			decls:    1,
		},
		{name: "unknown type", source: "//@oxy:bogus\n", wantErr: "unknown @oxy annotation type"},
		{name: "unknown provider", source: "//@oxy:provider 0 0 material\n", wantErr: "unknown provider identity"},
		{name: "bad group number", source: "//@oxy:provider x 0 externs\n", wantErr: "invalid group number"},
		{name: "bad address space", source: "//@oxy:group 0 0 push_constant s screen\n", wantErr: "unknown address space"},
		{name: "wrong arity", source: "//@oxy:group 0 0 storage_uniform screen\n", wantErr: "requires five arguments"},
		{name: "empty", source: "// @oxy:\n", wantErr: "empty @oxy annotation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := NewPreProcessor()
			out, err := pp.Process(tt.source)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			assert.Equal(t, tt.structsIn, strings.Count(out, "struct "))
			assert.Len(t, pp.Declarations(), tt.decls)
		})
	}
}

func TestPreProcessor_IgnoresAnnotationOutsideComments(t *testing.T) {
	pp := NewPreProcessor()
	src := `let s = "@oxy:include screen";`
	out, err := pp.Process(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestPreProcessor_DeclarationsResetBetweenRuns(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@oxy:provider 0 0 externs\n")
	require.NoError(t, err)
	require.Len(t, pp.Declarations(), 1)

	_, err = pp.Process("fn main() {}\n")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}
