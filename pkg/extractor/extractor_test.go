package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/l3aro/go-cfg-query/internal/parse"
	"github.com/l3aro/go-cfg-query/pkg/walk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, code string) ([]FunctionDef, []error) {
	t.Helper()
	src, err := parse.Parse(context.Background(), []byte(code))
	require.NoError(t, err)
	t.Cleanup(src.Close)

	w := walk.Tree(src.Tree)
	t.Cleanup(w.Close)

	defs, errs := Collect(w.All(), src.Content)
	require.NoError(t, w.Err())
	return defs, errs
}

func TestFunctionsSourceOrder(t *testing.T) {
	code := `def first(a):
    def inner(b):
        return b
    return inner(a)

class Service:
    def method(self, x):
        pass

async def fetch(url):
    return url

@decorator
def decorated():
    pass
`
	defs, errs := extract(t, code)
	require.Empty(t, errs)

	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"first", "inner", "method", "fetch", "decorated"}, names)

	assert.Equal(t, 1, defs[0].Line)
	assert.Equal(t, 2, defs[1].Line)
	assert.Equal(t, "block", defs[0].Body.Type())
	assert.Equal(t, []string{"self", "x"}, ParamNames(defs[2].Params))
}

func TestParameterVariants(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		check func(*testing.T, []Parameter)
	}{
		{
			name: "identifiers",
			code: "def f(a, b):\n    pass\n",
			check: func(t *testing.T, params []Parameter) {
				assert.Equal(t, []Parameter{Ident{Name: "a"}, Ident{Name: "b"}}, params)
			},
		},
		{
			name: "no parameters",
			code: "def f():\n    pass\n",
			check: func(t *testing.T, params []Parameter) {
				assert.Empty(t, params)
			},
		},
		{
			name: "typed and defaulted",
			code: "def f(a: int, b=2, c: str = 'x'):\n    pass\n",
			check: func(t *testing.T, params []Parameter) {
				require.Len(t, params, 3)

				typed, ok := params[0].(Typed)
				require.True(t, ok, "got %T", params[0])
				assert.Equal(t, "a", typed.Name)
				require.NotNil(t, typed.Type)
				assert.Equal(t, "type", typed.Type.Type())

				def, ok := params[1].(Default)
				require.True(t, ok, "got %T", params[1])
				assert.Equal(t, "b", def.Name)
				assert.Equal(t, "integer", def.Value.Type())

				td, ok := params[2].(TypedDefault)
				require.True(t, ok, "got %T", params[2])
				assert.Equal(t, "c", td.Name)
				assert.NotNil(t, td.Type)
				assert.Equal(t, "string", td.Value.Type())
			},
		},
		{
			name: "splats and separators",
			code: "def f(a, /, b, *args, c, **kwargs):\n    pass\n",
			check: func(t *testing.T, params []Parameter) {
				require.Len(t, params, 6)
				assert.Equal(t, Ident{Name: "a"}, params[0])
				assert.Equal(t, PositionalSeparator{}, params[1])
				assert.Equal(t, Ident{Name: "b"}, params[2])
				assert.Equal(t, ListSplat{Name: "args"}, params[3])
				assert.Equal(t, Ident{Name: "c"}, params[4])
				assert.Equal(t, DictSplat{Name: "kwargs"}, params[5])
				assert.Equal(t, []string{"a", "b", "args", "c", "kwargs"}, ParamNames(params))
			},
		},
		{
			name: "keyword only",
			code: "def f(a, *, b):\n    pass\n",
			check: func(t *testing.T, params []Parameter) {
				assert.Equal(t, []Parameter{Ident{Name: "a"}, KeywordSeparator{}, Ident{Name: "b"}}, params)
			},
		},
		{
			name: "typed splat",
			code: "def f(*args: int):\n    pass\n",
			check: func(t *testing.T, params []Parameter) {
				require.Len(t, params, 1)
				splat, ok := params[0].(ListSplat)
				require.True(t, ok, "got %T", params[0])
				assert.Equal(t, "args", splat.Name)
				assert.NotNil(t, splat.Type)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, errs := extract(t, tt.code)
			require.Empty(t, errs)
			require.Len(t, defs, 1)
			tt.check(t, defs[0].Params)
		})
	}
}

func TestUnsupportedParameterDoesNotAbort(t *testing.T) {
	code := `def good(a):
    pass

def legacy((a, b)):
    pass

def also_good(c):
    pass
`
	defs, errs := extract(t, code)

	require.Len(t, defs, 2)
	assert.Equal(t, "good", defs[0].Name)
	assert.Equal(t, "also_good", defs[1].Name)

	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrUnsupportedParameter))

	var paramErr *UnsupportedParameterError
	require.True(t, errors.As(errs[0], &paramErr))
	assert.Equal(t, "tuple_pattern", paramErr.Kind)
	assert.Equal(t, "legacy", paramErr.Function)
	assert.Equal(t, 4, paramErr.Line)
}

func TestParseFunctionMalformed(t *testing.T) {
	src, err := parse.Parse(context.Background(), []byte("class C:\n    pass\n"))
	require.NoError(t, err)
	defer src.Close()

	class := src.Tree.RootNode().NamedChild(0)
	require.Equal(t, "class_definition", class.Type())

	_, err = ParseFunction(class, src.Content)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedFunction))

	var malformed *MalformedFunctionError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "parameters", malformed.Field)
	assert.Equal(t, "C", malformed.Name)
	assert.Equal(t, `line 1: malformed function "C": missing parameters`, err.Error())
}

func TestFunctionsStopsWhenConsumerStops(t *testing.T) {
	src, err := parse.Parse(context.Background(), []byte("def a():\n    pass\ndef b():\n    pass\n"))
	require.NoError(t, err)
	defer src.Close()

	w := walk.Tree(src.Tree)
	defer w.Close()

	var seen []string
	for def, err := range Functions(w.All(), src.Content) {
		require.NoError(t, err)
		seen = append(seen, def.Name)
		break
	}
	assert.Equal(t, []string{"a"}, seen)
}
