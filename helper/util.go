package helper

import (
	"github.com/fatih/color"
)

var InfoFprintln = color.New(color.FgWhite).FprintlnFunc()
var ErrorFprintln = color.New(color.FgRed).FprintlnFunc()
var VerbosePrintln = color.New(color.FgYellow).PrintlnFunc()
var ResultFprintf = color.New(color.FgGreen).FprintfFunc()
var ResultFprintln = color.New(color.FgGreen).FprintlnFunc()
var AlertFprintln = color.New(color.FgHiRed, color.Bold).FprintlnFunc()

var verbose bool

// SetVerbose toggles VerboseLog output.
func SetVerbose(enabled bool) {
	verbose = enabled
}

// VerboseLog prints only when verbose output is enabled.
func VerboseLog(a ...interface{}) {
	if verbose {
		VerbosePrintln(a...)
	}
}
