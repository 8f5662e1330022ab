/*
Package dispatch turns user-interface events into commands and runs them
through coalescing schedulers.

Every command kind gets its own coalescing scheduler, created when a handler
is registered. Dispatch never blocks: it hands the command to the scheduler of
its kind, so a burst of commands of one kind runs the handler for the first
and the last of them only. Kinds never block each other.

	d := dispatch.New(dispatch.Config{Logger: logger})
	_ = d.Handle("select-app", func(ctx context.Context, cmd dispatch.Command) error {
		return showBuilds(ctx, cmd.Target)
	})

	_ = d.Dispatch(dispatch.NewCommand("select-app", "Aperture"))
	_ = d.Dispatch(dispatch.NewCommand("select-app", "Etar"))
	_ = d.Close(ctx)

The dispatcher has no knowledge of the user interface; tests drive it with
plain Command values.
*/
package dispatch
