// Package snake is a small snake game played inside the terminal output.
package snake

import (
	"fmt"
	"strings"
)

const (
	Width     = 20
	Height    = 10
	FoodScore = 10
)

type Point struct {
	X, Y int
}

// Rand picks food positions.
type Rand interface {
	IntN(n int) int
}

// Game is the pure game state. It is not safe for concurrent use; Runner
// serialises access.
type Game struct {
	body      []Point
	food      Point
	direction Point
	score     int
	over      bool
	rng       Rand
}

func NewGame(rng Rand) *Game {
	return &Game{
		body:      []Point{{X: 10, Y: 5}},
		food:      Point{X: 15, Y: 5},
		direction: Point{X: 1, Y: 0},
		rng:       rng,
	}
}

func (g *Game) Score() int     { return g.score }
func (g *Game) Over() bool     { return g.over }
func (g *Game) Head() Point    { return g.body[0] }
func (g *Game) Length() int    { return len(g.body) }
func (g *Game) Food() Point    { return g.food }
func (g *Game) Heading() Point { return g.direction }

// Steer turns the snake for a w/a/s/d or arrow key. Reversing onto the body
// is ignored. It reports whether key was a steering key.
func (g *Game) Steer(key string) bool {
	switch strings.ToLower(key) {
	case "w", "arrowup", "up":
		if g.direction.Y == 0 {
			g.direction = Point{X: 0, Y: -1}
		}
	case "s", "arrowdown", "down":
		if g.direction.Y == 0 {
			g.direction = Point{X: 0, Y: 1}
		}
	case "a", "arrowleft", "left":
		if g.direction.X == 0 {
			g.direction = Point{X: -1, Y: 0}
		}
	case "d", "arrowright", "right":
		if g.direction.X == 0 {
			g.direction = Point{X: 1, Y: 0}
		}
	default:
		return false
	}
	return true
}

// Step advances one tick and reports whether the game is over.
func (g *Game) Step() bool {
	if g.over {
		return true
	}
	head := g.body[0]
	next := Point{X: head.X + g.direction.X, Y: head.Y + g.direction.Y}

	if next.X < 0 || next.X >= Width || next.Y < 0 || next.Y >= Height || g.occupied(next) {
		g.over = true
		return true
	}

	g.body = append([]Point{next}, g.body...)
	if next == g.food {
		g.score += FoodScore
		if len(g.body) >= Width*Height {
			g.over = true
			return true
		}
		g.food = g.placeFood()
		return false
	}
	g.body = g.body[:len(g.body)-1]
	return false
}

func (g *Game) occupied(p Point) bool {
	for _, seg := range g.body {
		if seg == p {
			return true
		}
	}
	return false
}

func (g *Game) placeFood() Point {
	for {
		p := Point{X: g.rng.IntN(Width), Y: g.rng.IntN(Height)}
		if !g.occupied(p) {
			return p
		}
	}
}

// Render draws the board and, once the game is over, the final score.
func (g *Game) Render() []string {
	grid := make([][]string, Height)
	for y := range grid {
		grid[y] = make([]string, Width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}
	for i, seg := range g.body {
		if i == 0 {
			grid[seg.Y][seg.X] = "●"
		} else {
			grid[seg.Y][seg.X] = "○"
		}
	}
	grid[g.food.Y][g.food.X] = "🍎"

	border := "+" + strings.Repeat("-", Width) + "+"
	lines := []string{
		"🐍 SNAKE GAME 🐍",
		"Use arrow keys to move, ESC to quit",
		fmt.Sprintf("Score: %d", g.score),
		"",
		border,
	}
	for _, row := range grid {
		lines = append(lines, "|"+strings.Join(row, "")+"|")
	}
	lines = append(lines, border)

	if g.over {
		lines = append(lines,
			"",
			"💀 GAME OVER! 💀",
			fmt.Sprintf("Final Score: %d", g.score),
			"Press ESC to exit",
		)
	}
	return lines
}
