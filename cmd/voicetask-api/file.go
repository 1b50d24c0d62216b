package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicetask/internal/bootstrap"
	"voicetask/internal/domain"
)

func fileCmd() *cobra.Command {
	var sub domain.Submission

	cmd := &cobra.Command{
		Use:   "file [text...]",
		Short: "File one task through the same pipeline as send-to-teams",
		Long: `Enrich the text, create a board item and announce it in Teams.

Examples:
  voicetask-api file "fix the login button, high priority" --user-id 76664255 --group-id topics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub.Text = strings.Join(args, " ")

			services, err := bootstrap.BuildServer()
			if err != nil {
				return err
			}
			result, err := services.Filing.File(cmd.Context(), sub)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&sub.UserID, "user-id", "", "board person id of the assignee")
	cmd.Flags().StringVar(&sub.Username, "username", "", "assignee name used in the announcement")
	cmd.Flags().StringVar(&sub.Sprint, "sprint", "", "sprint item id")
	cmd.Flags().StringVar(&sub.GroupID, "group-id", "", "board group id")
	return cmd
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "catalog groups|sprints",
		Short:     "Print the group or sprint catalog as JSON",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"groups", "sprints"},
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := bootstrap.BuildServer()
			if err != nil {
				return err
			}

			switch args[0] {
			case "groups":
				groups, err := services.Filing.Groups(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd, groups)
			case "sprints":
				sprints, err := services.Filing.Sprints(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd, sprints)
			default:
				return fmt.Errorf("unknown catalog %q", args[0])
			}
		},
	}
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
