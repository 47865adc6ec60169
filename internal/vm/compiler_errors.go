package vm

import (
	"github.com/hashicorp/go-multierror"

	"github.com/funvibe/loxide/internal/diagnostics"
	"github.com/funvibe/loxide/internal/token"
)

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.parser.panicMode {
		return
	}
	c.parser.panicMode = true
	c.parser.hadError = true

	d := diagnostics.NewError(tok, message)
	c.sink.Report(d)
	c.errs = multierror.Append(c.errs, d)
	c.log.WithField("line", d.Line).Debug(d.Error())
}

// error reports at the token just consumed.
func (c *Compiler) error(message string) {
	c.errorAt(c.parser.previous, message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.parser.current, message)
}
