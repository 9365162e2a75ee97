package promote

import (
	"go.uber.org/zap"

	"github.com/temirov/promote/internal/execshell"
	"github.com/temirov/promote/internal/gitrepo"
	"github.com/temirov/promote/internal/ui"
)

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
//
// Human-readable logging routes command lifecycle events through the console
// event logger instead of the structured executor diagnostics.
func ResolveGitExecutor(existing GitExecutor, logger *zap.Logger, humanReadableLogging bool) (GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	commandRunner := execshell.NewOSCommandRunner()
	if humanReadableLogging {
		shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), commandRunner)
		if creationError != nil {
			return nil, creationError
		}
		shellExecutor.SetCommandEventObserver(ui.NewConsoleCommandEventLogger(logger))
		return shellExecutor, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveRepositoryManager(existing RepositoryManager, executor GitExecutor) (RepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}
