package cli

import "fmt"

// InitializeForCommand loads configuration and the logger as if the named subcommand were about to run.
func (application *Application) InitializeForCommand(commandUse string) error {
	for _, command := range application.rootCommand.Commands() {
		if command.Name() == commandUse {
			return application.initializeConfiguration(command)
		}
	}
	return fmt.Errorf(commandNotFoundErrorTemplateConstant, commandUse)
}

// Configuration returns the configuration resolved by the last initialization.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}
