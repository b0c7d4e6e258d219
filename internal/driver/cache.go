package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"loom/internal/affine"
)

// cacheSchemaVersion invalidates older payload layouts. Bump it whenever the
// cachePayload format changes.
const cacheSchemaVersion uint16 = 1

// Digest identifies file content by its SHA-256 sum.
type Digest [sha256.Size]byte

func digestOf(data []byte) Digest {
	return sha256.Sum256(data)
}

// Cache stores parsed map signatures on disk, keyed by content digest.
// Entries hold structure only, never handles: loading replays each signature
// through the live Context, so restored maps are canonical like any other.
// Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache initializes a disk cache at the standard user cache location.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "maps", hex.EncodeToString(key[:])+".mp")
}

// cachePayload is the on-disk form of one fully parsed file.
type cachePayload struct {
	Schema uint16
	Maps   []mapSig
}

// mapSig is the structural signature of one map: declared counts plus a
// postfix program producing the results in order.
type mapSig struct {
	NumDims    int
	NumSymbols int
	NumResults int
	Ops        []sigOp
}

// sigOp is one postfix step. Val carries the constant value for constants
// and the position for dim/symbol references.
type sigOp struct {
	Kind uint8
	Val  int64
}

// Put serializes payload under key, writing through a temp file so readers
// never observe a partial entry.
func (c *Cache) Put(key Digest, payload *cachePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload stored under key. It reports false on a clean miss
// and an error for unreadable or undecodable entries.
func (c *Cache) Get(key Digest, out *cachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cache entry, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// encodeMaps converts interned maps to their cacheable signatures.
func encodeMaps(maps []affine.Map) *cachePayload {
	payload := &cachePayload{Schema: cacheSchemaVersion}
	payload.Maps = make([]mapSig, len(maps))
	for i, m := range maps {
		sig := mapSig{
			NumDims:    m.NumDims(),
			NumSymbols: m.NumSymbols(),
			NumResults: m.NumResults(),
		}
		for _, res := range m.Results() {
			sig.Ops = appendPostfix(sig.Ops, res)
		}
		payload.Maps[i] = sig
	}
	return payload
}

func appendPostfix(ops []sigOp, e affine.Expr) []sigOp {
	if e.Kind().IsBinary() {
		ops = appendPostfix(ops, e.LHS())
		ops = appendPostfix(ops, e.RHS())
		return append(ops, sigOp{Kind: uint8(e.Kind())})
	}
	switch e.Kind() {
	case affine.ExprConstant:
		return append(ops, sigOp{Kind: uint8(affine.ExprConstant), Val: e.Value()})
	case affine.ExprDim:
		return append(ops, sigOp{Kind: uint8(affine.ExprDim), Val: int64(e.Position())})
	default:
		return append(ops, sigOp{Kind: uint8(affine.ExprSymbol), Val: int64(e.Position())})
	}
}

// replayMaps rebuilds interned maps from cached signatures. Cached bytes are
// untrusted input, so every structural fault is an error, never a panic.
func replayMaps(actx *affine.Context, payload *cachePayload) ([]affine.Map, error) {
	maps := make([]affine.Map, len(payload.Maps))
	for i := range payload.Maps {
		m, err := payload.Maps[i].replay(actx)
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", i, err)
		}
		maps[i] = m
	}
	return maps, nil
}

func (s *mapSig) replay(actx *affine.Context) (affine.Map, error) {
	if s.NumDims < 0 || s.NumSymbols < 0 || s.NumResults < 0 {
		return affine.Map{}, errors.New("negative count in signature")
	}

	var stack []affine.Expr
	pop2 := func() (affine.Expr, affine.Expr, bool) {
		if len(stack) < 2 {
			return affine.Expr{}, affine.Expr{}, false
		}
		lhs, rhs := stack[len(stack)-2], stack[len(stack)-1]
		stack = stack[:len(stack)-2]
		return lhs, rhs, true
	}

	for i, op := range s.Ops {
		switch affine.ExprKind(op.Kind) {
		case affine.ExprConstant:
			stack = append(stack, actx.Constant(op.Val))
		case affine.ExprDim:
			if op.Val < 0 || op.Val >= int64(s.NumDims) {
				return affine.Map{}, fmt.Errorf("op %d: dim position %d out of range", i, op.Val)
			}
			stack = append(stack, actx.Dim(int(op.Val)))
		case affine.ExprSymbol:
			if op.Val < 0 || op.Val >= int64(s.NumSymbols) {
				return affine.Map{}, fmt.Errorf("op %d: symbol position %d out of range", i, op.Val)
			}
			stack = append(stack, actx.Symbol(int(op.Val)))
		case affine.ExprAdd, affine.ExprMul, affine.ExprMod, affine.ExprFloorDiv, affine.ExprCeilDiv:
			lhs, rhs, ok := pop2()
			if !ok {
				return affine.Map{}, fmt.Errorf("op %d: stack underflow", i)
			}
			switch affine.ExprKind(op.Kind) {
			case affine.ExprAdd:
				stack = append(stack, actx.Add(lhs, rhs))
			case affine.ExprMul:
				stack = append(stack, actx.Mul(lhs, rhs))
			case affine.ExprMod:
				stack = append(stack, actx.Mod(lhs, rhs))
			case affine.ExprFloorDiv:
				stack = append(stack, actx.FloorDiv(lhs, rhs))
			default:
				stack = append(stack, actx.CeilDiv(lhs, rhs))
			}
		default:
			return affine.Map{}, fmt.Errorf("op %d: unknown kind %d", i, op.Kind)
		}
	}

	if len(stack) != s.NumResults {
		return affine.Map{}, fmt.Errorf("program leaves %d values, signature declares %d results", len(stack), s.NumResults)
	}
	return actx.MakeMap(s.NumDims, s.NumSymbols, stack), nil
}
