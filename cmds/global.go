package cmds

// GlobalExecutor holds commands defined at package init time.
var GlobalExecutor = NewExecutor()

func Define(name string, command *Command) {
	GlobalExecutor.Define(name, command)
}

// Execute runs args against GlobalExecutor and panics on error.
func Execute(args []string) {
	GlobalExecutor.MustExecute(args)
}
