package sandbox

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
)

// ConsolePackage is the import path under which a Console is exposed to
// evaluated code. It is part of every prelude.
const ConsolePackage = "console"

// Console collects the diagnostics emitted by one execution.
//
// A fresh Console is built per run and handed to the interpreter as the
// "console" package and as its stdout/stderr. Nothing process-wide is
// touched, so there is nothing to restore when evaluation fails.
type Console struct {
	mu      sync.Mutex
	entries []string
	partial strings.Builder // stdout bytes not yet terminated by a newline
}

// NewConsole creates an empty console.
func NewConsole() *Console {
	return &Console{}
}

// Log records one entry: the arguments rendered with fmt.Sprint and joined
// by single spaces.
func (c *Console) Log(args ...interface{}) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	c.append(strings.Join(parts, " "))
}

// Logf records one formatted entry.
func (c *Console) Logf(format string, args ...interface{}) {
	c.append(fmt.Sprintf(format, args...))
}

// Write implements io.Writer so the interpreter's stdout can be bound to the
// console. Each completed line becomes one entry.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rest := string(p)
	for {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			c.partial.WriteString(rest)
			break
		}
		c.partial.WriteString(rest[:idx])
		c.entries = append(c.entries, c.partial.String())
		c.partial.Reset()
		rest = rest[idx+1:]
	}
	return len(p), nil
}

// Entries returns a copy of the recorded entries in emission order.
// Unterminated stdout output is flushed as a final entry.
func (c *Console) Entries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	return append([]string(nil), c.entries...)
}

// String joins the entries with line breaks.
func (c *Console) String() string {
	return strings.Join(c.Entries(), "\n")
}

func (c *Console) append(entry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// keep ordering with a half-written stdout line
	c.flushLocked()
	c.entries = append(c.entries, entry)
}

func (c *Console) flushLocked() {
	if c.partial.Len() == 0 {
		return
	}
	c.entries = append(c.entries, c.partial.String())
	c.partial.Reset()
}

// exports binds this console's methods as the "console" package.
func (c *Console) exports() interp.Exports {
	return interp.Exports{
		ConsolePackage + "/" + ConsolePackage: {
			"Log":  reflect.ValueOf(c.Log),
			"Logf": reflect.ValueOf(c.Logf),
		},
	}
}
