package executor

import "os/exec"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// seam for external binaries so that tests can
// substitute the real subprocess call
//counterfeiter:generate . Executor
type Executor interface {
	Command(name string, arg ...string) Command
}

//counterfeiter:generate . Command
type Command interface {
	SetDir(dir string)
	CombinedOutput() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

type BinaryFileExecutor struct{}

func (b BinaryFileExecutor) Command(name string, arg ...string) Command {
	return &BinaryFileCommand{
		cmd: exec.Command(name, arg...),
	}
}

var _ Command = &BinaryFileCommand{}

type BinaryFileCommand struct {
	cmd *exec.Cmd
}

func (b *BinaryFileCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *BinaryFileCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
