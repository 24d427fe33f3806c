// Package puzzle implements the fixed, parameterized predicate templates of
// the minting protocol: quoted-condition puzzles for commitment-tree nodes,
// the pre-launcher, the singleton launcher, the NFT layer stack, the
// delegate puzzles, and the offer settlement puzzle.
//
// Templates are identified by protocol-defined module hashes and evaluated
// natively; this is not a general-purpose scripting surface. A puzzle's
// hash is computed by currying its module hash with its bound parameters
// (pkg/clvm), so hashes predicted off-chain match what the ledger verifies.
package puzzle

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/types"
)

// Errors shared by template evaluators.
var (
	ErrUnknownModule = errors.New("puzzle: unknown module hash")
	ErrInvalidMode   = errors.New("puzzle: invalid mode")
	ErrBadSolution   = errors.New("puzzle: malformed solution")
	ErrBadParameter  = errors.New("puzzle: malformed curried parameter")
)

// Arg is a curried parameter: either a plain value, a nested program, or a
// bare hash standing in for a puzzle known only by its hash.
type Arg interface {
	TreeHash() types.Hash
}

// HashArg is a curried parameter known only by its tree hash.
type HashArg types.Hash

// TreeHash returns the hash itself.
func (h HashArg) TreeHash() types.Hash {
	return types.Hash(h)
}

// Program is a puzzle reveal: a module hash plus curried parameters, or a
// literal quoted-condition body (commitment-tree nodes).
type Program struct {
	Mod  types.Hash
	Args []Arg
	Body *clvm.Value
}

// New constructs a curried template program.
func New(mod types.Hash, args ...Arg) *Program {
	return &Program{Mod: mod, Args: args}
}

// PuzzleHash returns the program's tree hash. A template with no curried
// parameters hashes to its module hash; a quoted body hashes literally;
// everything else is the curried-tree hash.
func (p *Program) PuzzleHash() types.Hash {
	if p.Body != nil {
		return p.Body.TreeHash()
	}
	if len(p.Args) == 0 {
		return p.Mod
	}
	hashes := make([]types.Hash, len(p.Args))
	for i, a := range p.Args {
		hashes[i] = a.TreeHash()
	}
	return clvm.CurryHash(p.Mod, hashes...)
}

// TreeHash makes *Program usable as an Arg (a nested inner puzzle).
func (p *Program) TreeHash() types.Hash {
	return p.PuzzleHash()
}

// Run evaluates the program against a solution.
func (p *Program) Run(solution *clvm.Value) ([]coin.Condition, error) {
	if solution == nil {
		solution = clvm.Nil()
	}
	if p.Body != nil {
		return runQuoted(p.Body)
	}
	fn, ok := runners[p.Mod]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, p.Mod)
	}
	return fn(p, solution)
}

// runFunc evaluates one native template.
type runFunc func(p *Program, solution *clvm.Value) ([]coin.Condition, error)

// runners dispatches module hashes to their native evaluators. Populated
// from init functions in the template files.
var runners = map[types.Hash]runFunc{}

func register(mod types.Hash, fn runFunc) {
	runners[mod] = fn
}

// argValue returns curried parameter i as a plain value.
func (p *Program) argValue(i int) (*clvm.Value, error) {
	if i >= len(p.Args) {
		return nil, fmt.Errorf("%w: missing parameter %d", ErrBadParameter, i)
	}
	v, ok := p.Args[i].(*clvm.Value)
	if !ok {
		return nil, fmt.Errorf("%w: parameter %d is not a value", ErrBadParameter, i)
	}
	return v, nil
}

// argHash32 returns curried parameter i as a 32-byte hash atom.
func (p *Program) argHash32(i int) (types.Hash, error) {
	v, err := p.argValue(i)
	if err != nil {
		return types.Hash{}, err
	}
	b, ok := v.AtomBytes()
	if !ok {
		return types.Hash{}, fmt.Errorf("%w: parameter %d is not an atom", ErrBadParameter, i)
	}
	h, err := types.BytesToHash(b)
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: parameter %d: %v", ErrBadParameter, i, err)
	}
	return h, nil
}

// argUint returns curried parameter i as a canonical unsigned integer.
func (p *Program) argUint(i int) (uint64, error) {
	v, err := p.argValue(i)
	if err != nil {
		return 0, err
	}
	n, err := clvm.Uint64FromValue(v)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %d: %v", ErrBadParameter, i, err)
	}
	return n, nil
}

// argBytes returns curried parameter i as a raw atom.
func (p *Program) argBytes(i int) ([]byte, error) {
	v, err := p.argValue(i)
	if err != nil {
		return nil, err
	}
	b, ok := v.AtomBytes()
	if !ok {
		return nil, fmt.Errorf("%w: parameter %d is not an atom", ErrBadParameter, i)
	}
	return b, nil
}

// argProgram returns curried parameter i as a nested program.
func (p *Program) argProgram(i int) (*Program, error) {
	if i >= len(p.Args) {
		return nil, fmt.Errorf("%w: missing parameter %d", ErrBadParameter, i)
	}
	inner, ok := p.Args[i].(*Program)
	if !ok {
		return nil, fmt.Errorf("%w: parameter %d is not a program", ErrBadParameter, i)
	}
	return inner, nil
}

// JSON wire forms, used by the node RPC surface.

type programJSON struct {
	Mod  string    `json:"mod,omitempty"`
	Args []argJSON `json:"args,omitempty"`
	Body string    `json:"body,omitempty"`
}

type argJSON struct {
	Value   string       `json:"value,omitempty"`
	Hash    string       `json:"hash,omitempty"`
	Program *programJSON `json:"program,omitempty"`
}

// MarshalJSON encodes the program reveal for transport.
func (p *Program) MarshalJSON() ([]byte, error) {
	j, err := p.toJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

func (p *Program) toJSON() (*programJSON, error) {
	if p.Body != nil {
		return &programJSON{Body: hex.EncodeToString(clvm.Serialize(p.Body))}, nil
	}
	j := &programJSON{Mod: p.Mod.String()}
	for _, a := range p.Args {
		switch a := a.(type) {
		case *clvm.Value:
			j.Args = append(j.Args, argJSON{Value: hex.EncodeToString(clvm.Serialize(a))})
		case *Program:
			nested, err := a.toJSON()
			if err != nil {
				return nil, err
			}
			j.Args = append(j.Args, argJSON{Program: nested})
		case HashArg:
			j.Args = append(j.Args, argJSON{Hash: types.Hash(a).String()})
		default:
			return nil, fmt.Errorf("puzzle: unsupported arg type %T", a)
		}
	}
	return j, nil
}

// UnmarshalJSON decodes a program reveal.
func (p *Program) UnmarshalJSON(data []byte) error {
	var j programJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	decoded, err := fromJSON(&j)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

func fromJSON(j *programJSON) (*Program, error) {
	if j.Body != "" {
		raw, err := hex.DecodeString(j.Body)
		if err != nil {
			return nil, fmt.Errorf("puzzle body hex: %w", err)
		}
		body, err := clvm.Deserialize(raw)
		if err != nil {
			return nil, fmt.Errorf("puzzle body: %w", err)
		}
		return &Program{Body: body}, nil
	}
	mod, err := types.HexToHash(j.Mod)
	if err != nil {
		return nil, fmt.Errorf("puzzle mod: %w", err)
	}
	p := &Program{Mod: mod}
	for i, a := range j.Args {
		switch {
		case a.Value != "":
			raw, err := hex.DecodeString(a.Value)
			if err != nil {
				return nil, fmt.Errorf("arg %d hex: %w", i, err)
			}
			v, err := clvm.Deserialize(raw)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			p.Args = append(p.Args, v)
		case a.Hash != "":
			h, err := types.HexToHash(a.Hash)
			if err != nil {
				return nil, fmt.Errorf("arg %d hash: %w", i, err)
			}
			p.Args = append(p.Args, HashArg(h))
		case a.Program != nil:
			nested, err := fromJSON(a.Program)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			p.Args = append(p.Args, nested)
		default:
			return nil, fmt.Errorf("arg %d: empty", i)
		}
	}
	return p, nil
}
