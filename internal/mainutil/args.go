package mainutil

import (
	"os"

	"github.com/mattn/go-shellwords"
	flag "github.com/spf13/pflag"
)

// ParseArgs parses command-line flags, then any extra options piped on stdin
// (shell-style words, environment expansion enabled).
func ParseArgs(flags *flag.FlagSet) (argv []string, err error) {
	var argx []string
	if input, err := ReadAllStdin(); err == nil && len(input) > 0 {
		parser := shellwords.NewParser()
		parser.ParseEnv = true
		words, err := parser.Parse(string(input))
		if err != nil {
			return nil, err
		}
		argx = words
	} else if err != nil {
		return nil, err
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, err
	}
	argv = append([]string{}, flags.Args()...)
	return argv, flags.Parse(append(os.Args[1:], argx...))
}
