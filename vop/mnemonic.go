package vop

// Mnemonic identifies one virtual operation. The vector mnemonics below the
// internal marker are the caller-facing surface; the rest are produced only
// by the selector and the mask synthesizer (constant materialization, scalar
// address arithmetic, reductions, branches).
type Mnemonic uint8

const (
	MnemInvalid Mnemonic = iota

	// Moves and memory.
	MnemLoad
	MnemStore
	MnemMov
	MnemBroadcast

	// Lane-wise arithmetic.
	MnemAdd
	MnemSub
	MnemMul
	MnemDiv
	MnemMin
	MnemMax
	MnemAbs
	MnemNeg

	// Lane-wise bitwise. These ignore the element kind and operate on the
	// full bit image, so they are registered for every element.
	MnemAnd
	MnemOr
	MnemXor
	MnemAndNot

	// Shifts. The immediate forms carry the count in the operation; ShlVar
	// takes a per-lane count vector.
	MnemShlImm
	MnemShrImm
	MnemSarImm
	MnemShlVar

	// Compares. Results are masks: every lane all-ones or all-zeros.
	MnemCmpEq
	MnemCmpNe
	MnemCmpGt
	MnemCmpLt

	// Blend selects lanes of a or b by a mask (mask set takes a).
	MnemBlend

	// Conversions between same-width int and float lanes. The operation
	// shape names the destination element.
	MnemCvtToInt
	MnemCvtToFloat

	// Cross-lane.
	MnemRev

	mnemInternal

	// Constant materialization: MOVC zeroes and sets one chunk, MOVCK
	// inserts further chunks at their bit position.
	MnemLoadConst
	MnemLoadConstK

	// Scalar address/mask arithmetic on the GP file.
	MnemAddAddr
	MnemAndAddr
	MnemOrAddr
	MnemXorAddr

	// Lane-zero extract, byte-granular reductions, byte move-mask.
	MnemMovToGP
	MnemRedMinU
	MnemRedMaxU
	MnemMoveMask

	// Conditional branches comparing a GP register with an immediate.
	MnemBrEq
	MnemBrNe

	mnemEnd
)

// Category groups mnemonics by how they decompose.
type Category byte

const (
	// CatMove covers loads, stores, register moves and broadcasts.
	CatMove Category = iota
	// CatLaneWise covers operations where each lane depends only on the
	// same lane of every source.
	CatLaneWise
	// CatCompare is lane-wise with a mask-typed result.
	CatCompare
	// CatCrossLane covers operations whose lanes interact, which never
	// split naively over register-pair halves.
	CatCrossLane
	// CatInternal marks mnemonics the selector emits but callers may not.
	CatInternal
)

func (c Category) String() string {
	switch c {
	case CatMove:
		return "move"
	case CatLaneWise:
		return "lane-wise"
	case CatCompare:
		return "compare"
	case CatCrossLane:
		return "cross-lane"
	case CatInternal:
		return "internal"
	default:
		return "unknown"
	}
}

type mnemonicInfo struct {
	name        string
	cat         Category
	nsrc        int
	hasImm      bool
	commutative bool
	maskResult  bool
	intOnly     bool
}

var mnemonicTable = [mnemEnd]mnemonicInfo{
	MnemLoad:      {name: "LD", cat: CatMove, nsrc: 1},
	MnemStore:     {name: "ST", cat: CatMove, nsrc: 1},
	MnemMov:       {name: "MOV", cat: CatMove, nsrc: 1},
	MnemBroadcast: {name: "DUP", cat: CatMove, nsrc: 1},

	MnemAdd: {name: "ADD", cat: CatLaneWise, nsrc: 2, commutative: true},
	MnemSub: {name: "SUB", cat: CatLaneWise, nsrc: 2},
	MnemMul: {name: "MUL", cat: CatLaneWise, nsrc: 2, commutative: true},
	MnemDiv: {name: "DIV", cat: CatLaneWise, nsrc: 2},
	MnemMin: {name: "MIN", cat: CatLaneWise, nsrc: 2, commutative: true},
	MnemMax: {name: "MAX", cat: CatLaneWise, nsrc: 2, commutative: true},
	MnemAbs: {name: "ABS", cat: CatLaneWise, nsrc: 1},
	MnemNeg: {name: "NEG", cat: CatLaneWise, nsrc: 1},

	MnemAnd:    {name: "AND", cat: CatLaneWise, nsrc: 2, commutative: true},
	MnemOr:     {name: "OR", cat: CatLaneWise, nsrc: 2, commutative: true},
	MnemXor:    {name: "XOR", cat: CatLaneWise, nsrc: 2, commutative: true},
	MnemAndNot: {name: "ANDN", cat: CatLaneWise, nsrc: 2},

	MnemShlImm: {name: "SHL", cat: CatLaneWise, nsrc: 1, hasImm: true, intOnly: true},
	MnemShrImm: {name: "SHR", cat: CatLaneWise, nsrc: 1, hasImm: true, intOnly: true},
	MnemSarImm: {name: "SAR", cat: CatLaneWise, nsrc: 1, hasImm: true, intOnly: true},
	MnemShlVar: {name: "SHLV", cat: CatLaneWise, nsrc: 2, intOnly: true},

	MnemCmpEq: {name: "CMPEQ", cat: CatCompare, nsrc: 2, commutative: true, maskResult: true},
	MnemCmpNe: {name: "CMPNE", cat: CatCompare, nsrc: 2, commutative: true, maskResult: true},
	MnemCmpGt: {name: "CMPGT", cat: CatCompare, nsrc: 2, maskResult: true},
	MnemCmpLt: {name: "CMPLT", cat: CatCompare, nsrc: 2, maskResult: true},

	MnemBlend: {name: "BLEND", cat: CatLaneWise, nsrc: 3},

	MnemCvtToInt:   {name: "CVTI", cat: CatLaneWise, nsrc: 1},
	MnemCvtToFloat: {name: "CVTF", cat: CatLaneWise, nsrc: 1},

	MnemRev: {name: "REV", cat: CatCrossLane, nsrc: 1},

	MnemLoadConst:  {name: "MOVC", cat: CatInternal, nsrc: 0, hasImm: true},
	MnemLoadConstK: {name: "MOVCK", cat: CatInternal, nsrc: 0, hasImm: true},
	MnemAddAddr:    {name: "ADDA", cat: CatInternal, nsrc: 2},
	MnemAndAddr:    {name: "ANDA", cat: CatInternal, nsrc: 2},
	MnemOrAddr:     {name: "ORA", cat: CatInternal, nsrc: 2},
	MnemXorAddr:    {name: "XORA", cat: CatInternal, nsrc: 2},
	MnemMovToGP:    {name: "MOVGP", cat: CatInternal, nsrc: 1},
	MnemRedMinU:    {name: "MINV", cat: CatInternal, nsrc: 1},
	MnemRedMaxU:    {name: "MAXV", cat: CatInternal, nsrc: 1},
	MnemMoveMask:   {name: "MOVMSK", cat: CatInternal, nsrc: 1},
	MnemBrEq:       {name: "BEQ", cat: CatInternal, nsrc: 1, hasImm: true},
	MnemBrNe:       {name: "BNE", cat: CatInternal, nsrc: 1, hasImm: true},
}

func (m Mnemonic) valid() bool { return m > MnemInvalid && m < mnemEnd && m != mnemInternal }

func (m Mnemonic) String() string {
	if !m.valid() {
		return "invalid"
	}
	return mnemonicTable[m].name
}

// Category returns the decomposition class of m.
func (m Mnemonic) Category() Category {
	if !m.valid() {
		return CatInternal
	}
	return mnemonicTable[m].cat
}

// NumSources returns how many register/memory sources m takes.
func (m Mnemonic) NumSources() int {
	if !m.valid() {
		return 0
	}
	return mnemonicTable[m].nsrc
}

// HasImmediate reports whether m carries an immediate in the operation.
func (m Mnemonic) HasImmediate() bool {
	return m.valid() && mnemonicTable[m].hasImm
}

// Commutative reports whether the two sources of m may be swapped.
func (m Mnemonic) Commutative() bool {
	return m.valid() && mnemonicTable[m].commutative
}

// ProducesMask reports whether the result of m is a lane mask.
func (m Mnemonic) ProducesMask() bool {
	return m.valid() && mnemonicTable[m].maskResult
}

// IntOnly reports whether m rejects float element shapes.
func (m Mnemonic) IntOnly() bool {
	return m.valid() && mnemonicTable[m].intOnly
}

// Internal reports whether m is selector-internal and not caller-emittable.
func (m Mnemonic) Internal() bool {
	return !m.valid() || mnemonicTable[m].cat == CatInternal
}
