package cli

import (
	"github.com/spf13/cobra"

	"github.com/git-graph/git-graph/pkg/core/gitrepo"
	"github.com/git-graph/git-graph/pkg/core/model"
)

// modelCommand creates the model subcommand: print, set, or list branching
// models.
func (c *CLI) modelCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "model [name]",
		Short: "Print or permanently set the branching model for a repository",
		Long: `Print or permanently set the branching model for a repository.

With no argument, prints the repository's currently set model. With a name,
validates it against the available models and persists it for the repo.
Built-in models are [simple|git-flow|none]; custom models are TOML files in
the application's models directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelsDir, err := model.AppModelDir()
			if err != nil {
				return err
			}
			if err := model.EnsureBuiltins(modelsDir); err != nil {
				return err
			}

			if list {
				names, err := model.AvailableModels(modelsDir)
				if err != nil {
					return err
				}
				for _, name := range names {
					printInfo("%s", name)
				}
				return nil
			}

			repo, err := gitrepo.Open(c.path)
			if err != nil {
				return err
			}
			gitDir, err := repo.GitDir()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				name, ok, err := model.RepoModelName(gitDir)
				if err != nil {
					return err
				}
				if !ok {
					printInfo("No branching model set")
					return nil
				}
				printKeyValue("model", name)
				return nil
			}

			if err := model.SetRepoModel(gitDir, args[0], modelsDir); err != nil {
				return err
			}
			printSuccess("Branching model set to %q", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list all available branching models")

	return cmd
}
