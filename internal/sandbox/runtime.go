package sandbox

import (
	"strconv"
	"strings"
)

// memPlaceholder in a runtime arg is replaced with the memory ceiling in MB.
const memPlaceholder = "{mem}"

// Runtime describes one interpreter profile. The submitted source is always
// delivered over stdin (the trailing "-" argument on the built-in profiles),
// so the code never touches a command line.
type Runtime struct {
	Name   string `validate:"required"`
	Binary string `validate:"required"`
	Args   []string
}

// argv expands the profile's argument template for the given memory ceiling.
func (r Runtime) argv(memMB int) []string {
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = strings.ReplaceAll(a, memPlaceholder, strconv.Itoa(memMB))
	}
	return args
}

// Built-in interpreter profiles.
//
// node's heap ceiling comes from --max-old-space-size; python has no such
// flag, so it relies on the launcher's ulimit wrapper alone. python runs in
// isolated mode (-I) so PYTHONPATH and user site-packages are ignored even
// if a future caller adds them to the environment.
var builtinRuntimes = map[string]Runtime{
	"node": {
		Name:   "node",
		Binary: "node",
		Args:   []string{"--max-old-space-size=" + memPlaceholder, "-"},
	},
	"python": {
		Name:   "python",
		Binary: "python3",
		Args:   []string{"-I", "-"},
	},
}

// RuntimeByName returns a built-in interpreter profile.
func RuntimeByName(name string) (Runtime, bool) {
	rt, ok := builtinRuntimes[name]
	return rt, ok
}

// RuntimeNames lists the built-in profile names.
func RuntimeNames() []string {
	names := make([]string, 0, len(builtinRuntimes))
	for name := range builtinRuntimes {
		names = append(names, name)
	}
	return names
}
