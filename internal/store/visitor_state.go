package store

import "context"

// VisitorState is one visitor's flags and command log.
type VisitorState struct {
	visitorID string
	flags     *FlagRepo
	commands  *CommandLogRepo
}

func (v *VisitorState) BootSeen(ctx context.Context) (bool, error) {
	return v.flags.Get(ctx, v.visitorID, FlagBootSeen)
}

func (v *VisitorState) MarkBootSeen(ctx context.Context) error {
	return v.flags.Set(ctx, v.visitorID, FlagBootSeen, true)
}

func (v *VisitorState) Visited(ctx context.Context) (bool, error) {
	return v.flags.Get(ctx, v.visitorID, FlagVisited)
}

func (v *VisitorState) MarkVisited(ctx context.Context) error {
	return v.flags.Set(ctx, v.visitorID, FlagVisited, true)
}

func (v *VisitorState) Engineer(ctx context.Context) (bool, error) {
	return v.flags.Get(ctx, v.visitorID, FlagEngineer)
}

func (v *VisitorState) EnableEngineer(ctx context.Context) error {
	return v.flags.Set(ctx, v.visitorID, FlagEngineer, true)
}

func (v *VisitorState) AppendCommand(ctx context.Context, command string) error {
	return v.commands.Append(ctx, v.visitorID, command)
}

func (v *VisitorState) RecentCommands(ctx context.Context, limit int) ([]string, error) {
	entries, err := v.commands.Recent(ctx, v.visitorID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Command)
	}
	return out, nil
}
