package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	gerrors "github.com/git-graph/git-graph/pkg/errors"
)

// repoModelFile is the name of the file, stored under the repository's .git
// directory, that records the chosen model name for that repo.
const repoModelFile = "git-graph-model.toml"

// repoSettings is the on-disk shape of repoModelFile.
type repoSettings struct {
	Model string `toml:"model"`
}

// EnsureBuiltins writes the three built-in models as TOML files into dir if
// dir does not already exist, so a first run has them available.
func EnsureBuiltins(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeBadArgument, err, "create model directory %s", dir)
	}
	for _, b := range Builtins() {
		path := filepath.Join(dir, b.Name+".toml")
		f, err := os.Create(path)
		if err != nil {
			return gerrors.Wrap(gerrors.ErrCodeBadArgument, err, "write model file %s", path)
		}
		err = toml.NewEncoder(f).Encode(b.Def)
		closeErr := f.Close()
		if err != nil {
			return gerrors.Wrap(gerrors.ErrCodeBadArgument, err, "encode model file %s", path)
		}
		if closeErr != nil {
			return gerrors.Wrap(gerrors.ErrCodeBadArgument, closeErr, "write model file %s", path)
		}
	}
	return nil
}

// AvailableModels lists the model names (TOML file stems) found in dir.
func AvailableModels(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeBadArgument, err, "read model directory %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".toml" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadModel loads a named model's Definition from dir. If the name is not
// found, the error lists the models that are available.
func ReadModel(name, dir string) (Definition, error) {
	path := filepath.Join(dir, name+".toml")
	if _, err := os.Stat(path); err != nil {
		available, _ := AvailableModels(dir)
		return Definition{}, gerrors.New(gerrors.ErrCodeInvalidModel,
			"no branching model named %q found in %s; available models are: %s",
			name, dir, strings.Join(available, ", "))
	}
	var def Definition
	if _, err := toml.DecodeFile(path, &def); err != nil {
		return Definition{}, gerrors.Wrap(gerrors.ErrCodeInvalidModel, err, "decode model file %s", path)
	}
	return def, nil
}

// RepoModelName returns the model name persisted for the repository whose
// .git directory is gitDir, if any has been set.
func RepoModelName(gitDir string) (string, bool, error) {
	path := filepath.Join(gitDir, repoModelFile)
	if _, err := os.Stat(path); err != nil {
		return "", false, nil
	}
	var rs repoSettings
	if _, err := toml.DecodeFile(path, &rs); err != nil {
		return "", false, gerrors.Wrap(gerrors.ErrCodeInvalidModel, err, "decode %s", path)
	}
	return rs.Model, true, nil
}

// Resolve picks the Definition to use: an explicitly named model overrides
// everything; otherwise the repo's persisted model is used; otherwise
// git-flow is the default.
func Resolve(explicit, gitDir, appModelDir string) (Definition, error) {
	if explicit != "" {
		return ReadModel(explicit, appModelDir)
	}
	if name, ok, err := RepoModelName(gitDir); err != nil {
		return Definition{}, err
	} else if ok {
		return ReadModel(name, appModelDir)
	}
	if def, err := ReadModel("git-flow", appModelDir); err == nil {
		return def, nil
	}
	return GitFlow(), nil
}

// SetRepoModel validates name against the models available in appModelDir
// and persists it as the repo's chosen model.
func SetRepoModel(gitDir, name, appModelDir string) error {
	available, err := AvailableModels(appModelDir)
	if err != nil {
		return err
	}
	found := false
	for _, a := range available {
		if a == name {
			found = true
			break
		}
	}
	if !found {
		return gerrors.New(gerrors.ErrCodeInvalidModel,
			"no branching model named %q found in %s; available models are: %s",
			name, appModelDir, strings.Join(available, ", "))
	}

	path := filepath.Join(gitDir, repoModelFile)
	f, err := os.Create(path)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeBadArgument, err, "write %s", path)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(repoSettings{Model: name}); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeBadArgument, err, "encode %s", path)
	}
	return nil
}

// AppModelDir returns the default application-data directory for storing
// built-in and user-added branching models: $XDG_CONFIG_HOME/git-graph/models
// or ~/.config/git-graph/models.
func AppModelDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "git-graph", "models"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "git-graph", "models"), nil
}
