// Package flagx extracts subsets of command-line flags so several loaders
// (JSON config path, env file, regular flags) can each parse only the flags
// they own.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// Boolean flags must use the combined form (-x=false) when followed by a
// positional value, otherwise the next argument is taken as the flag value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// stringFlag parses a single string flag known under several names and
// returns its value, or "" when none of the names is present.
func stringFlag(set string, names ...string) string {
	var value string

	args := FilterArgs(os.Args[1:], prefixed(names))

	fs := flag.NewFlagSet(set, flag.ContinueOnError)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(args)

	return value
}

func prefixed(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, "-"+n)
	}
	return out
}

// JsonConfigFlags returns the config file path given via -c or -config,
// or "" when neither is present.
func JsonConfigFlags() string {
	return stringFlag("json", "c", "config")
}

// EnvFileFlags returns the dotenv file path given via -env, or "" when the
// flag is absent.
func EnvFileFlags() string {
	return stringFlag("env", "env")
}
