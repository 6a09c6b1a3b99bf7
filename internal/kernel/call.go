package kernel

import "context"

// Call is what a handler sees of one command invocation.
type Call struct {
	Context     context.Context
	Name        string
	Args        []string
	Raw         string
	Environment Environment

	kernel *Kernel
}

// Arg returns the i-th argument or "".
func (c *Call) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Print writes lines to the terminal output as one batch.
func (c *Call) Print(lines ...string) {
	switch len(lines) {
	case 0:
	case 1:
		c.kernel.out.Push(lines[0])
	default:
		c.kernel.out.PushMultiple(lines)
	}
}

// SetInteractiveMode hands all following input to m until the mode is
// cleared or replaced.
func (c *Call) SetInteractiveMode(m Mode) {
	c.kernel.SetInteractiveMode(m)
}
