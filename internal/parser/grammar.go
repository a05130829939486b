package parser

// Operator grammar data for TLA+. Each operator owns a precedence range
// [Lo, Hi]; two adjacent operators whose ranges overlap cannot appear
// unparenthesised next to each other unless they are the same
// left-associative symbol. This mirrors the language's own rule that
// such combinations must be disambiguated by the author.

// OpInfo describes one operator symbol.
type OpInfo struct {
	Symbol    string
	Lo, Hi    int
	LeftAssoc bool
}

// rangesOverlap returns true when the precedence ranges of a and b
// share at least one level.
func rangesOverlap(a, b OpInfo) bool {
	lo := a.Lo
	if b.Lo > lo {
		lo = b.Lo
	}
	hi := a.Hi
	if b.Hi < hi {
		hi = b.Hi
	}
	return lo <= hi
}

// infixOps is the infix operator table.
//
// The set-algebra operators (\cup, \cap, set difference) deliberately
// span down into the relational level so that mixing them with \in,
// \subseteq and friends without parentheses is reported as ambiguous.
var infixOps = map[string]OpInfo{
	"=>":   {Symbol: "=>", Lo: 1, Hi: 1},
	"<=>":  {Symbol: "<=>", Lo: 2, Hi: 2},
	"~>":   {Symbol: "~>", Lo: 2, Hi: 2},
	"-+->": {Symbol: "-+->", Lo: 2, Hi: 2},

	"\\equiv": {Symbol: "\\equiv", Lo: 2, Hi: 2},

	"/\\": {Symbol: "/\\", Lo: 3, Hi: 3, LeftAssoc: true},
	"\\/": {Symbol: "\\/", Lo: 3, Hi: 3, LeftAssoc: true},

	"=":  {Symbol: "=", Lo: 5, Hi: 5},
	"/=": {Symbol: "/=", Lo: 5, Hi: 5},
	"#":  {Symbol: "#", Lo: 5, Hi: 5},
	"<":  {Symbol: "<", Lo: 5, Hi: 5},
	">":  {Symbol: ">", Lo: 5, Hi: 5},
	"<=": {Symbol: "<=", Lo: 5, Hi: 5},
	"=<": {Symbol: "=<", Lo: 5, Hi: 5},
	">=": {Symbol: ">=", Lo: 5, Hi: 5},

	"\\in":       {Symbol: "\\in", Lo: 5, Hi: 5},
	"\\notin":    {Symbol: "\\notin", Lo: 5, Hi: 5},
	"\\subset":   {Symbol: "\\subset", Lo: 5, Hi: 5},
	"\\subseteq": {Symbol: "\\subseteq", Lo: 5, Hi: 5},
	"\\supset":   {Symbol: "\\supset", Lo: 5, Hi: 5},
	"\\supseteq": {Symbol: "\\supseteq", Lo: 5, Hi: 5},
	"\\prec":     {Symbol: "\\prec", Lo: 5, Hi: 5},
	"\\preceq":   {Symbol: "\\preceq", Lo: 5, Hi: 5},
	"\\succ":     {Symbol: "\\succ", Lo: 5, Hi: 5},
	"\\succeq":   {Symbol: "\\succeq", Lo: 5, Hi: 5},
	"\\ll":       {Symbol: "\\ll", Lo: 5, Hi: 5},
	"\\gg":       {Symbol: "\\gg", Lo: 5, Hi: 5},

	"\\cup":       {Symbol: "\\cup", Lo: 5, Hi: 8, LeftAssoc: true},
	"\\union":     {Symbol: "\\union", Lo: 5, Hi: 8, LeftAssoc: true},
	"\\cap":       {Symbol: "\\cap", Lo: 5, Hi: 8, LeftAssoc: true},
	"\\intersect": {Symbol: "\\intersect", Lo: 5, Hi: 8, LeftAssoc: true},
	"\\":          {Symbol: "\\", Lo: 5, Hi: 8},

	"@@": {Symbol: "@@", Lo: 6, Hi: 6, LeftAssoc: true},
	":>": {Symbol: ":>", Lo: 7, Hi: 7},
	"<:": {Symbol: "<:", Lo: 7, Hi: 7},

	"$":  {Symbol: "$", Lo: 9, Hi: 13, LeftAssoc: true},
	"$$": {Symbol: "$$", Lo: 9, Hi: 13, LeftAssoc: true},
	"..": {Symbol: "..", Lo: 9, Hi: 9},

	"+":  {Symbol: "+", Lo: 10, Hi: 10, LeftAssoc: true},
	"-":  {Symbol: "-", Lo: 11, Hi: 11, LeftAssoc: true},
	"++": {Symbol: "++", Lo: 10, Hi: 10, LeftAssoc: true},
	"%":  {Symbol: "%", Lo: 10, Hi: 11},
	"|":  {Symbol: "|", Lo: 10, Hi: 11, LeftAssoc: true},

	"&":  {Symbol: "&", Lo: 13, Hi: 13, LeftAssoc: true},
	"&&": {Symbol: "&&", Lo: 13, Hi: 13, LeftAssoc: true},

	"\\X":      {Symbol: "\\X", Lo: 10, Hi: 13, LeftAssoc: true},
	"\\times":  {Symbol: "\\times", Lo: 10, Hi: 13, LeftAssoc: true},
	"\\o":      {Symbol: "\\o", Lo: 13, Hi: 13, LeftAssoc: true},
	"\\circ":   {Symbol: "\\circ", Lo: 13, Hi: 13, LeftAssoc: true},
	"\\oplus":  {Symbol: "\\oplus", Lo: 10, Hi: 10, LeftAssoc: true},
	"\\ominus": {Symbol: "\\ominus", Lo: 11, Hi: 11, LeftAssoc: true},
	"\\otimes": {Symbol: "\\otimes", Lo: 13, Hi: 13, LeftAssoc: true},
	"\\odot":   {Symbol: "\\odot", Lo: 13, Hi: 13, LeftAssoc: true},
	"\\oslash": {Symbol: "\\oslash", Lo: 13, Hi: 13},

	"*":     {Symbol: "*", Lo: 13, Hi: 13, LeftAssoc: true},
	"**":    {Symbol: "**", Lo: 13, Hi: 13, LeftAssoc: true},
	"/":     {Symbol: "/", Lo: 13, Hi: 13},
	"\\div": {Symbol: "\\div", Lo: 13, Hi: 13},

	"^":  {Symbol: "^", Lo: 14, Hi: 14},
	"^^": {Symbol: "^^", Lo: 14, Hi: 14},

	".": {Symbol: ".", Lo: 17, Hi: 17, LeftAssoc: true},
}

// prefixOps is the prefix operator table. UNCHANGED, ENABLED and the
// set-level keyword operators lex as operator tokens and resolve here.
var prefixOps = map[string]OpInfo{
	"~":         {Symbol: "~", Lo: 4, Hi: 4},
	"\\lnot":    {Symbol: "\\lnot", Lo: 4, Hi: 4},
	"\\neg":     {Symbol: "\\neg", Lo: 4, Hi: 4},
	"[]":        {Symbol: "[]", Lo: 4, Hi: 15},
	"<>":        {Symbol: "<>", Lo: 4, Hi: 15},
	"ENABLED":   {Symbol: "ENABLED", Lo: 4, Hi: 15},
	"UNCHANGED": {Symbol: "UNCHANGED", Lo: 4, Hi: 15},
	"SUBSET":    {Symbol: "SUBSET", Lo: 8, Hi: 8},
	"UNION":     {Symbol: "UNION", Lo: 8, Hi: 8},
	"DOMAIN":    {Symbol: "DOMAIN", Lo: 9, Hi: 9},
	"-":         {Symbol: "-", Lo: 12, Hi: 12},
}

// postfixOps is the postfix operator table.
var postfixOps = map[string]OpInfo{
	"'":  {Symbol: "'", Lo: 15, Hi: 15},
	"^+": {Symbol: "^+", Lo: 15, Hi: 15},
	"^*": {Symbol: "^*", Lo: 15, Hi: 15},
	"^#": {Symbol: "^#", Lo: 15, Hi: 15},
}

// InfixOpInfo returns the infix table entry for symbol.
func InfixOpInfo(symbol string) (OpInfo, bool) {
	info, ok := infixOps[symbol]
	return info, ok
}

// PrefixOpInfo returns the prefix table entry for symbol.
func PrefixOpInfo(symbol string) (OpInfo, bool) {
	info, ok := prefixOps[symbol]
	return info, ok
}

// PostfixOpInfo returns the postfix table entry for symbol.
func PostfixOpInfo(symbol string) (OpInfo, bool) {
	info, ok := postfixOps[symbol]
	return info, ok
}
