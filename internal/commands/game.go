package commands

import (
	"context"
	"math/rand/v2"

	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/snake"
)

func gameCommands(d *Deps) []kernel.Command {
	return []kernel.Command{
		{Name: "snake", Scope: kernel.ScopeGlobal, Handler: func(c *kernel.Call) error {
			rng := d.Rand
			if rng == nil {
				rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			}
			runner := snake.NewRunner(snake.NewGame(rng), d.Screen, d.SnakeInterval)
			c.SetInteractiveMode(kernel.Mode{
				Name: "snake",
				Handle: func(_ context.Context, input string) {
					runner.Steer(input)
				},
				Stop: runner.Stop,
			})
			c.Print(runner.Frame()...)
			go runner.Run(c.Context)
			return nil
		}},
	}
}
