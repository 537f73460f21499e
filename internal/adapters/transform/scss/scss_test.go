package scss_test

import (
	"bytes"
	"io/fs"
	"os"
	"testing"
	"testing/fstest"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/adapters/transform/scss"
)

func compile(t *testing.T, src string, opts scss.Options) string {
	t.Helper()
	out, err := scss.Compile("main.scss", []byte(src), opts)
	require.NoError(t, err)
	return string(out)
}

func TestCompile_Expanded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "variables and nesting",
			src: `$primary: #336699;
$pad: 4px;

.nav {
  color: $primary;
  ul {
    margin: 0;
    padding: $pad * 2;
  }
  &:hover { color: red; }
}
`,
			want: ".nav {\n  color: #336699;\n}\n\n" +
				".nav ul {\n  margin: 0;\n  padding: 8px;\n}\n\n" +
				".nav:hover {\n  color: red;\n}\n",
		},
		{
			name: "selector lists",
			src:  ".a, .b { .c, .d { x: y } }",
			want: ".a .c,\n.a .d,\n.b .c,\n.b .d {\n  x: y;\n}\n",
		},
		{
			name: "media bubbling",
			src: `.a {
  color: red;
  @media (max-width: 600px) {
    color: blue;
    .b { margin: 0; }
  }
}`,
			want: ".a {\n  color: red;\n}\n\n" +
				"@media (max-width: 600px) {\n  .a {\n    color: blue;\n  }\n}\n\n" +
				"@media (max-width: 600px) {\n  .a .b {\n    margin: 0;\n  }\n}\n",
		},
		{
			name: "mixins",
			src: `@mixin box($size, $radius: 2px) {
  width: $size;
  border-radius: $radius;
}
.card { @include box(10px); }
.tile { @include box(4px, $radius: 0); }
`,
			want: ".card {\n  width: 10px;\n  border-radius: 2px;\n}\n\n" +
				".tile {\n  width: 4px;\n  border-radius: 0;\n}\n",
		},
		{
			name: "interpolation",
			src:  "$side: left;\n.m-#{$side} { margin-#{$side}: 1px; }",
			want: ".m-left {\n  margin-left: 1px;\n}\n",
		},
		{
			name: "font face",
			src:  `@font-face { font-family: "X"; src: url(x.woff); }`,
			want: "@font-face {\n  font-family: \"X\";\n  src: url(x.woff);\n}\n",
		},
		{
			name: "charset and comments",
			src:  "@charset \"UTF-8\";\n/* header */\n// dropped\n.a { color: red; }",
			want: "@charset \"UTF-8\";\n\n/* header */\n\n.a {\n  color: red;\n}\n",
		},
		{
			name: "default variables",
			src:  "$c: red;\n$c: blue !default;\n.a { color: $c; }",
			want: ".a {\n  color: red;\n}\n",
		},
		{
			name: "empty rules are dropped",
			src:  ".empty {}\n.a { color: red; }",
			want: ".a {\n  color: red;\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, compile(t, tt.src, scss.Options{}))
		})
	}
}

func TestCompile_Golden(t *testing.T) {
	src, err := os.ReadFile("testdata/stylesheet.scss")
	require.NoError(t, err)

	for _, style := range []scss.Style{scss.Expanded, scss.Compressed} {
		t.Run(string(style), func(t *testing.T) {
			out, err := scss.Compile("stylesheet.scss", src, scss.Options{Style: style})
			require.NoError(t, err)

			g := goldie.New(t)
			g.Assert(t, "stylesheet_"+string(style), out)
		})
	}
}

func TestCompile_Compressed(t *testing.T) {
	t.Parallel()

	src := `/* dropped */
/*! kept */
.nav {
  color: red;
  font-family: Arial, sans-serif;
  > li { margin: 0 }
  @media (max-width: 600px) { color: blue; }
}`
	got := compile(t, src, scss.Options{Style: scss.Compressed})
	assert.Equal(t,
		"/*! kept */.nav{color:red;font-family:Arial,sans-serif}.nav>li{margin:0}@media (max-width:600px){.nav{color:blue}}",
		got)
}

func TestCompile_LineComments(t *testing.T) {
	t.Parallel()

	got := compile(t, ".a { color: red; }", scss.Options{LineComments: true})
	assert.Equal(t, "/* line 1, main.scss */\n.a {\n  color: red;\n}\n", got)
}

func TestCompile_Import(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"src/sass/_base.scss":       {Data: []byte("$c: red;\nbody { margin: 0; }\n")},
		"src/sass/parts/_grid.scss": {Data: []byte(".grid { width: $c; }\n")},
	}
	load := func(name string) ([]byte, error) { return fs.ReadFile(fsys, name) }

	out, err := scss.Compile("src/sass/main.scss",
		[]byte("@import \"base\", \"parts/grid\";\n@import \"vendor.css\";\n.x { color: $c; }"),
		scss.Options{Load: load, LineComments: true})
	require.NoError(t, err)

	assert.Equal(t,
		"/* line 2, src/sass/_base.scss */\nbody {\n  margin: 0;\n}\n\n"+
			"/* line 1, src/sass/parts/_grid.scss */\n.grid {\n  width: red;\n}\n\n"+
			"@import \"vendor.css\";\n\n"+
			"/* line 3, src/sass/main.scss */\n.x {\n  color: red;\n}\n",
		string(out))
}

func TestCompile_Warn(t *testing.T) {
	t.Parallel()

	var log bytes.Buffer
	compile(t, "$w: 3px;\n@warn \"width is #{$w}\";", scss.Options{Log: &log})
	assert.Equal(t, "WARNING: width is 3px (main.scss:2)\n", log.String())
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"_a.scss": {Data: []byte(`@import "b";`)},
		"_b.scss": {Data: []byte(`@import "a";`)},
	}
	load := func(name string) ([]byte, error) { return fs.ReadFile(fsys, name) }

	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"undefined variable", ".a {\n  color: $missing;\n}", 2, "undefined variable $missing"},
		{"unclosed block", ".a { color: red;", 1, `expected "}"`},
		{"stray brace", "}", 1, `unexpected "}"`},
		{"unsupported control flow", "@each $i in a, b { .x { y: z } }", 1, "@each is not supported"},
		{"top-level declaration", "color: red;", 1, "declarations may only be used within style rules"},
		{"undefined mixin", ".a { @include nope; }", 1, `undefined mixin "nope"`},
		{"missing argument", "@mixin m($a) { x: $a; }\n.a { @include m; }", 2, `missing argument $a for mixin "m"`},
		{"import cycle", `@import "a";`, 1, `import cycle through "_a.scss"`},
		{"user error", `@error "boom";`, 1, "boom"},
		{"unterminated comment", "/* open", 1, "unterminated comment"},
		{"unterminated string", ".a { content: \"open\n}", 1, "unterminated string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scss.Compile("main.scss", []byte(tt.src), scss.Options{Load: load})
			require.Error(t, err)

			var serr *scss.Error
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.msg, serr.Msg)
			assert.Equal(t, tt.line, serr.Line)
		})
	}
}

func TestCompile_MissingImport(t *testing.T) {
	t.Parallel()

	load := func(name string) ([]byte, error) { return fs.ReadFile(fstest.MapFS{}, name) }
	_, err := scss.Compile("main.scss", []byte(`@import "missing";`), scss.Options{Load: load})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `main.scss:1: cannot import "missing"`)
}
