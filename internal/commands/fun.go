package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/enesbrtc/enes.codes/internal/kernel"
)

func funCommands(d *Deps) []kernel.Command {
	return []kernel.Command{
		{Name: "whoami", Scope: kernel.ScopeGlobal, Handler: page(d, "whoami")},
		{Name: "date", Scope: kernel.ScopeGlobal, Handler: func(c *kernel.Call) error {
			c.Print(d.now().UTC().Format("2006-01-02T15:04:05.000Z"))
			return nil
		}},
		{Name: "uptime", Scope: kernel.ScopeGlobal, Handler: page(d, "uptime")},
	}
}

func easterEggs(d *Deps) []kernel.Command {
	hidden := func(name string, h kernel.Handler) kernel.Command {
		return kernel.Command{Name: name, Scope: kernel.ScopeGlobal, Hidden: true, Handler: h}
	}
	return []kernel.Command{
		hidden("hello", page(d, "hello")),
		hidden("hi", page(d, "hi")),
		hidden("coffee", page(d, "coffee")),
		hidden("why", page(d, "why")),
		hidden("reboot", rebootHandler(d)),
		hidden("whois", func(c *kernel.Call) error {
			target := c.Arg(0)
			switch strings.ToLower(target) {
			case "":
				c.Print("whois: missing operand")
			case "enes", "barutcu":
				c.Print(d.Content.Page("whois")...)
			default:
				c.Print(fmt.Sprintf("whois: %s: domain not found", target))
			}
			return nil
		}),
		hidden("legacy", page(d, "legacy")),
		hidden("404", page(d, "404")),
	}
}

// rebootHandler prints the shutdown notice, then after RebootDelay redraws
// the screen with the boot banner unless the terminal closes first.
func rebootHandler(d *Deps) kernel.Handler {
	return func(c *kernel.Call) error {
		c.Print(d.Content.Page("reboot")...)

		ctx := c.Context
		banner := append([]string(nil), d.Content.Boot.Banner...)
		timer := time.NewTimer(d.RebootDelay)
		go func() {
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
				d.Screen.Replace(banner)
			}
		}()
		return nil
	}
}
