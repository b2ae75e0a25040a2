package testing

import (
	"sync"

	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/executor"
)

type ExecutedCommand struct {
	Name string
	Args []string
	Dir  string
}

// CommandHandler stands in for the side effects of the real binary,
// e.g. writing the output file the caller expects to find.
type CommandHandler func(command ExecutedCommand) ([]byte, error)

var _ executor.Executor = &ScriptedExecutor{}

// ScriptedExecutor satisfies the executor seam with a caller supplied
// handler and records every command it was asked to run.
type ScriptedExecutor struct {
	Handler CommandHandler

	mutex    sync.Mutex
	executed []ExecutedCommand
}

func (s *ScriptedExecutor) Command(name string, arg ...string) executor.Command {
	return &scriptedCommand{
		executor: s,
		command: ExecutedCommand{
			Name: name,
			Args: arg,
		},
	}
}

func (s *ScriptedExecutor) ExecutedCommands() []ExecutedCommand {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	executed := make([]ExecutedCommand, len(s.executed))
	copy(executed, s.executed)
	return executed
}

func (s *ScriptedExecutor) record(command ExecutedCommand) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.executed = append(s.executed, command)
}

var _ executor.Command = &scriptedCommand{}

type scriptedCommand struct {
	executor *ScriptedExecutor
	command  ExecutedCommand
}

func (s *scriptedCommand) SetDir(dir string) {
	s.command.Dir = dir
}

func (s *scriptedCommand) CombinedOutput() ([]byte, error) {
	s.executor.record(s.command)

	if s.executor.Handler == nil {
		return nil, nil
	}

	return s.executor.Handler(s.command)
}
