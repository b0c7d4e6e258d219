package driver

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loom/internal/affine"
)

func TestOpenCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := OpenCache("loom-test")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.DirExists(t, c.dir)
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "a.affine",
		"(d0, d1)[s0] -> (d0 floordiv s0, d0 mod s0, d1)\n"+
			"(d0) -> (-d0 + 7)\n")

	cache := &Cache{dir: t.TempDir()}
	actx := affine.NewContext()

	cold, err := ParseFiles(context.Background(), actx, []string{path}, Options{Cache: cache})
	require.NoError(t, err)
	assert.Equal(t, 0, cold.CacheHits)
	require.Len(t, cold.Files[0].Maps, 2)

	before := actx.Stats()
	warm, err := ParseFiles(context.Background(), actx, []string{path}, Options{Cache: cache})
	require.NoError(t, err)
	assert.Equal(t, 1, warm.CacheHits)
	assert.True(t, warm.Files[0].FromCache)
	assert.Equal(t, cold.Files[0].Maps, warm.Files[0].Maps,
		"replayed maps must be the same canonical handles")
	assert.Equal(t, before.Maps, actx.Stats().Maps, "replay must not mint new maps")
}

func TestCacheCorruptEntryReparsed(t *testing.T) {
	dir := t.TempDir()
	content := "(d0) -> (d0 ceildiv 4)\n"
	path := writeInput(t, dir, "a.affine", content)

	cache := &Cache{dir: t.TempDir()}
	actx := affine.NewContext()

	_, err := ParseFiles(context.Background(), actx, []string{path}, Options{Cache: cache})
	require.NoError(t, err)

	// Smash the stored entry; the driver must fall back to parsing.
	entry := cache.pathFor(digestOf([]byte(content)))
	require.FileExists(t, entry)
	require.NoError(t, os.WriteFile(entry, []byte("not msgpack"), 0o644))

	res, err := ParseFiles(context.Background(), actx, []string{path}, Options{Cache: cache})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CacheHits)
	assert.False(t, res.Files[0].FromCache)
	assert.Equal(t, 1, res.Parsed)
}

func TestCacheSkipsDirtyFiles(t *testing.T) {
	dir := t.TempDir()
	content := "(d0) -> (d0)\nbroken line\n"
	path := writeInput(t, dir, "a.affine", content)

	cache := &Cache{dir: t.TempDir()}
	res, err := ParseFiles(context.Background(), affine.NewContext(), []string{path}, Options{Cache: cache})
	require.NoError(t, err)
	require.Len(t, res.Files[0].Errs, 1)

	assert.NoFileExists(t, cache.pathFor(digestOf([]byte(content))),
		"files with bad lines must not be cached")
}

func TestCacheSchemaMismatch(t *testing.T) {
	cache := &Cache{dir: t.TempDir()}
	key := digestOf([]byte("x"))
	require.NoError(t, cache.Put(key, &cachePayload{Schema: cacheSchemaVersion + 1}))

	var out cachePayload
	ok, err := cache.Get(key, &out)
	require.NoError(t, err)
	assert.False(t, ok, "foreign schema must read as a miss")
}

func TestCacheDropAll(t *testing.T) {
	cache := &Cache{dir: t.TempDir()}
	key := digestOf([]byte("y"))
	require.NoError(t, cache.Put(key, &cachePayload{Schema: cacheSchemaVersion}))
	require.NoError(t, cache.DropAll())

	var out cachePayload
	ok, err := cache.Get(key, &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEncodeReplayIdentity(t *testing.T) {
	actx := affine.NewContext()
	d0, d1 := actx.Dim(0), actx.Dim(1)
	s0 := actx.Symbol(0)
	maps := []affine.Map{
		actx.MakeMap(0, 0, nil),
		actx.MakeMap(2, 1, []affine.Expr{
			actx.Add(actx.Mul(d0, s0), actx.Constant(-3)),
			actx.CeilDiv(d1, actx.Constant(8)),
		}),
		actx.MakeMap(1, 0, []affine.Expr{actx.Mod(d0, actx.Constant(2))}),
	}

	payload := encodeMaps(maps)
	got, err := replayMaps(actx, payload)
	require.NoError(t, err)
	assert.Equal(t, maps, got)
}

func TestReplayRejectsCorruptSignatures(t *testing.T) {
	cases := []struct {
		name string
		sig  mapSig
		want string
	}{
		{
			name: "dim out of range",
			sig: mapSig{NumDims: 1, NumResults: 1, Ops: []sigOp{
				{Kind: uint8(affine.ExprDim), Val: 5},
			}},
			want: "dim position 5 out of range",
		},
		{
			name: "symbol out of range",
			sig: mapSig{NumSymbols: 1, NumResults: 1, Ops: []sigOp{
				{Kind: uint8(affine.ExprSymbol), Val: -1},
			}},
			want: "symbol position -1 out of range",
		},
		{
			name: "stack underflow",
			sig: mapSig{NumDims: 1, NumResults: 1, Ops: []sigOp{
				{Kind: uint8(affine.ExprDim), Val: 0},
				{Kind: uint8(affine.ExprAdd)},
			}},
			want: "stack underflow",
		},
		{
			name: "wrong result count",
			sig: mapSig{NumDims: 1, NumResults: 2, Ops: []sigOp{
				{Kind: uint8(affine.ExprDim), Val: 0},
			}},
			want: "declares 2 results",
		},
		{
			name: "negative counts",
			sig:  mapSig{NumDims: -1},
			want: "negative count",
		},
		{
			name: "unknown op",
			sig: mapSig{NumResults: 1, Ops: []sigOp{
				{Kind: 200},
			}},
			want: "unknown kind 200",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.sig.replay(affine.NewContext())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
