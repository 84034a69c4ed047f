package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant          = "~"
	notDirectoryTemplateConstant = "%w: %s"
)

// ErrNotDirectory indicates that a working directory argument names something other than a directory.
var ErrNotDirectory = errors.New("not a directory")

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander converts user home shortcuts to absolute paths.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectoryOnce     sync.Once
	homeDirectory         string
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand replaces a leading "~" or "~/" with the user's home directory.
// Paths naming another user's home ("~other") are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory := expander.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	if len(remainder) == 0 {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, remainder[1:])
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.homeDirectoryOnce.Do(func() {
		homeDirectory, homeDirectoryError := expander.homeDirectoryProvider()
		if homeDirectoryError == nil {
			expander.homeDirectory = homeDirectory
		}
	})
	return expander.homeDirectory
}

// ResolveDirectory expands the path, makes it absolute and confirms that it names a directory.
// An empty path resolves to the current working directory.
func (expander *HomeExpander) ResolveDirectory(candidatePath string) (string, error) {
	expandedPath := expander.Expand(strings.TrimSpace(candidatePath))
	if len(expandedPath) == 0 {
		return os.Getwd()
	}

	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", absoluteError
	}

	directoryInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		return "", statError
	}
	if !directoryInfo.IsDir() {
		return "", fmt.Errorf(notDirectoryTemplateConstant, ErrNotDirectory, absolutePath)
	}
	return absolutePath, nil
}
