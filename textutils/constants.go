// Package textutils holds small string/byte constants shared across the
// other packages so that they don't all redeclare the same literals.
package textutils

const (
	EmptyStr      = ""
	WhiteSpaceStr = " "
	ColonStr      = ":"
	SemiColonStr  = ";"
	EqualStr      = "="
	PeriodStr     = "."
	NewLineString = "\n"

	ForwardSlashStr = "/"
	CloseBraceStr   = "}"
)

const (
	ColonChar       = ':'
	EqualChar       = '='
	HashChar        = '#'
	DollarChar      = '$'
	OpenBraceChar   = '{'
	CloseBraceChar  = '}'
	BackSlashChar   = '\\'
	ForwardSlashChar = '/'

	ALowerChar = 'a'
	ZLowerChar = 'z'
	AUpperChar = 'A'
	ZUpperChar = 'Z'
)
