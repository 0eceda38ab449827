// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/retroenv/pycgodisasm/internal/options"
	"github.com/retroenv/pycgodisasm/internal/pyver"
)

// ParseFlags parses command line flags and returns program and
// disassembler options.
func ParseFlags() (options.Program, options.Disassembler, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, options.Disassembler{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Disassembler{}, err
	}

	if opts.Input == "" {
		opts.Input = args[0]
	}

	disasmOptions := options.NewDisassembler(opts)
	if opts.PyVersion != "" {
		version, err := pyver.Parse(opts.PyVersion)
		if err != nil {
			return opts, disasmOptions, err
		}
		disasmOptions.Version = version
	}

	return opts, disasmOptions, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: pycgodisasm [options] <file to disassemble>\n\n")
	e.flags.PrintDefaults()
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after file to disassemble, please pass the file to disassemble as last argument", arg),
			}
		}
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input .pyc file")
	flags.StringVar(&opts.Output, "o", "", "name of the output listing file, printed on console if no name given")
	flags.StringVar(&opts.PyVersion, "pyversion", "", "bytecode format version override in major.minor form, for example 3.7 - if not detected from the file header")
	flags.BoolVar(&opts.NoRecurse, "norecurse", false, "do not disassemble code objects found in constant pools")
	flags.BoolVar(&opts.Strict, "strict", false, "fail on opcodes unknown to the selected version instead of printing a placeholder")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
