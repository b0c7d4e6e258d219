package parse_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/affine"
	"loom/internal/parse"
)

func TestMapRoundTrip(t *testing.T) {
	cases := []string{
		"() -> ()",
		"() -> (42)",
		"() -> (-42)",
		"(d0) -> (d0)",
		"(d0, d1) -> (d1, d0)",
		"(d0, d1) -> (d0 floordiv 128, d0 mod 128, d1)",
		"(d0)[s0] -> (d0 + s0)",
		"(d0)[s0, s1] -> (d0 * s0 + s1)",
		"(d0, d1) -> (d0 + d1 * 16)",
		"(d0, d1) -> ((d0 + d1) * 16)",
		"(d0, d1) -> (d0 + (d1 + 1))",
		"(d0) -> (d0 ceildiv 8)",
		"(d0)[s0] -> ((d0 floordiv s0) mod 4)",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			ctx := affine.NewContext()
			m, err := parse.Map(ctx, src)
			require.NoError(t, err)
			assert.Equal(t, src, m.String(), "canonical text must round-trip")

			again, err := parse.Map(ctx, m.String())
			require.NoError(t, err)
			assert.Equal(t, m, again, "round-trip must land on the same handle")
		})
	}
}

func TestMapSugar(t *testing.T) {
	ctx := affine.NewContext()

	// Subtraction is sugar for + (-1) *, so both spellings intern to one map.
	sub, err := parse.Map(ctx, "(d0, d1) -> (d0 - d1)")
	require.NoError(t, err)
	expanded, err := parse.Map(ctx, "(d0, d1) -> (d0 + -1 * d1)")
	require.NoError(t, err)
	assert.Equal(t, sub, expanded)
	assert.Equal(t, "(d0, d1) -> (d0 + -1 * d1)", sub.String())

	// Unary minus before a literal folds into the constant.
	neg, err := parse.Map(ctx, "(d0) -> (d0 + -8)")
	require.NoError(t, err)
	res := neg.Result(0)
	require.Equal(t, affine.ExprAdd, res.Kind())
	require.Equal(t, affine.ExprConstant, res.RHS().Kind())
	assert.Equal(t, int64(-8), res.RHS().Value())

	// Unary minus before anything else multiplies by -1.
	negDim, err := parse.Map(ctx, "(d0) -> (-d0)")
	require.NoError(t, err)
	viaMul, err := parse.Map(ctx, "(d0) -> (-1 * d0)")
	require.NoError(t, err)
	assert.Equal(t, negDim, viaMul)

	// Binary minus of a literal stays structural: d0 - 5 is not d0 + -5.
	binSub, err := parse.Map(ctx, "(d0) -> (d0 - 5)")
	require.NoError(t, err)
	folded, err := parse.Map(ctx, "(d0) -> (d0 + -5)")
	require.NoError(t, err)
	assert.NotEqual(t, binSub, folded)
	assert.Equal(t, "(d0) -> (d0 + -1 * 5)", binSub.String())
}

func TestMapExtremes(t *testing.T) {
	ctx := affine.NewContext()

	m, err := parse.Map(ctx, "() -> (-9223372036854775808)")
	require.NoError(t, err)
	assert.Equal(t, int64(-9223372036854775808), m.Result(0).Value())

	m, err = parse.Map(ctx, "() -> (9223372036854775807)")
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), m.Result(0).Value())

	// Whitespace between tokens is free-form.
	spaced, err := parse.Map(ctx, "  ( d0 , d1 )  ->  ( d0 + d1 )  ")
	require.NoError(t, err)
	tight, err := parse.Map(ctx, "(d0,d1)->(d0+d1)")
	require.NoError(t, err)
	assert.Equal(t, spaced, tight)

	// Precedence: * binds tighter than +.
	prec, err := parse.Map(ctx, "(d0, d1) -> (d0 + d1 * 4)")
	require.NoError(t, err)
	root := prec.Result(0)
	require.Equal(t, affine.ExprAdd, root.Kind())
	assert.Equal(t, affine.ExprMul, root.RHS().Kind())

	empty, err := parse.Map(ctx, "() -> ()")
	require.NoError(t, err)
	assert.Equal(t, ctx.MakeMap(0, 0, nil), empty)
}

func TestMapErrors(t *testing.T) {
	cases := []struct {
		name       string
		src        string
		wantOffset int
		wantMsg    string
	}{
		{"empty input", "", 0, "expected '(', got end of input"},
		{"missing arrow", "(d0) (d0)", 5, "expected '->'"},
		{"non-positional dims", "(d1) -> (d0)", 1, `expected d0 in the dimension list`},
		{"non-positional symbols", "(d0)[s1] -> (d0)", 5, `expected s0 in the symbol list`},
		{"undeclared dimension", "(d0) -> (d1)", 9, "undeclared dimension d1"},
		{"undeclared symbol", "(d0) -> (s0)", 9, "undeclared symbol s0"},
		{"unterminated results", "(d0) -> (d0", 11, "expected ')', got end of input"},
		{"trailing input", "(d0) -> (d0) extra", 13, "expected end of input"},
		{"stray character", "(d0) -> (d0 @ 1)", 12, "unexpected character '@'"},
		{"constant overflow", "() -> (9223372036854775808)", 7, "overflows int64"},
		{"negative overflow", "() -> (-9223372036854775809)", 8, "overflows int64"},
		{"operator as operand", "(d0) -> (mod)", 9, `expected operand, got "mod"`},
		{"unknown identifier", "(d0) -> (x0)", 9, `unknown identifier "x0"`},
		{"zero-padded reference", "(d0, d1) -> (d01)", 13, `unknown identifier "d01"`},
		{"missing operand", "(d0) -> (d0 + )", 14, "expected operand"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse.Map(affine.NewContext(), tc.src)
			require.Error(t, err)

			var perr *parse.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.wantOffset, perr.Offset, "error offset")
			assert.Contains(t, perr.Msg, tc.wantMsg)
			assert.Contains(t, err.Error(), "offset")
		})
	}
}

func TestMapErrorLeavesNoHandle(t *testing.T) {
	ctx := affine.NewContext()
	m, err := parse.Map(ctx, "(d0) -> (")
	require.Error(t, err)
	assert.False(t, m.IsValid())

	var generic error = err
	assert.True(t, errors.As(generic, new(*parse.Error)))
}
