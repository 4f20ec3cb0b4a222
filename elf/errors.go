package elf

import "errors"

var (
	NoSymbolsError    = errors.New("no symbols")
	NoDebugInfoError  = errors.New("no debug info")
	LineNotFoundError = errors.New("line not found")
)
