// Package flagx lets independent config sources each parse only the
// command-line flags they own, without tripping over the others.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps the flags named in allowedFlags, and their values, from
// args. Both "-f value" and "-f=value" forms are recognized; a value is only
// taken from the next argument when that argument does not itself look like
// a flag.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// LookupString returns the value of the first of names found in
// os.Args[1:], or "" when none is set. Every name is registered as an alias
// of the same string flag.
func LookupString(names ...string) string {
	var value string

	dashed := make([]string, 0, len(names))
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(discard{})
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
		dashed = append(dashed, "-"+n)
	}

	_ = fs.Parse(FilterArgs(os.Args[1:], dashed))
	return value
}

// JsonConfigFlags returns the config file path given with -c or -config.
func JsonConfigFlags() string {
	return LookupString("config", "c")
}

// EnvFileFlags returns the dotenv file path given with -env-file.
func EnvFileFlags() string {
	return LookupString("env-file")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
