// Package dispatch splits process arguments into a command name and the
// arguments forwarded to it.
package dispatch

// Runner executes a named command with its forwarded arguments.
type Runner func(cmd string, args []string) error

// Split separates argv into the command name and the forwarded arguments.
// argv[0] is the invocation path and never takes part in dispatch. ok is false
// when argv carries no command name.
func Split(argv []string) (cmd string, args []string, ok bool) {
	if len(argv) < 2 {
		return "", nil, false
	}
	return argv[1], append([]string(nil), argv[2:]...), true
}

// Dispatch forwards argv to run exactly once, or calls fallback when argv
// names no command. The error from run is returned unchanged.
func Dispatch(argv []string, run Runner, fallback func()) error {
	cmd, args, ok := Split(argv)
	if !ok {
		fallback()
		return nil
	}
	return run(cmd, args)
}
