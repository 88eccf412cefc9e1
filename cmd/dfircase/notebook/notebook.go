package notebook

import (
	"github.com/myrjola/dfircase/cmd/dfircase/cliutil"
	"github.com/myrjola/dfircase/internal/casework"
	"github.com/myrjola/dfircase/internal/logging"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/spf13/cobra"
	"log/slog"
)

var Group = &cobra.Group{
	ID:    "notebook",
	Title: "Findings and analyst notebook",
}

// Commands returns the commands editing findings and the analyst notebook.
func Commands() []*cobra.Command {
	return []*cobra.Command{
		findingCmd(), notesCmd(), taskCmd(), iocCmd(), timelineCmd(), filesCmd(), packerCmd(),
	}
}

func findingCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "finding [id] [step-id] [text]",
		GroupID: Group.ID,
		Short:   "Record the finding of a step",
		Long:    "Records the finding of a catalog step verbatim. Use - to read the text from standard input.",
		Args:    cobra.ExactArgs(3), //nolint:mnd // id, step id, and text
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := cliutil.Text(cmd, args[2])
			if err != nil {
				return err
			}
			ctx := logging.WithAttrs(cmd.Context(), slog.String("step_id", args[1]))
			c, err := cliutil.Workspace(cmd).Editor.SetFinding(ctx, args[0], args[1], text)
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
}

func notesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "notes [id] [text]",
		GroupID: Group.ID,
		Short:   "Replace the analyst notes",
		Long:    "Replaces the free-text analyst notes. Use - to read the text from standard input.",
		Args:    cobra.ExactArgs(2), //nolint:mnd // id and text
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := cliutil.Text(cmd, args[1])
			if err != nil {
				return err
			}
			c, err := cliutil.Workspace(cmd).Editor.SetNotes(cmd.Context(), args[0], text)
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
}

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		GroupID: Group.ID,
		Short:   "Edit the task checklist",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [id] [text]",
			Short: "Add an open task",
			Args:  cobra.ExactArgs(2), //nolint:mnd // id and text
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := cliutil.Workspace(cmd).Editor.AddTask(cmd.Context(), args[0], args[1])
				return cliutil.Saved(cmd, args[0], c, err)
			},
		},
		&cobra.Command{
			Use:   "toggle [id] [task-id]",
			Short: "Flip the completion of a task",
			Args:  cobra.ExactArgs(2), //nolint:mnd // id and task id
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := cliutil.Workspace(cmd).Editor.ToggleTask(cmd.Context(), args[0], args[1])
				return cliutil.Saved(cmd, args[0], c, err)
			},
		},
		&cobra.Command{
			Use:   "rm [id] [task-id]",
			Short: "Remove a task",
			Args:  cobra.ExactArgs(2), //nolint:mnd // id and task id
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := cliutil.Workspace(cmd).Editor.RemoveTask(cmd.Context(), args[0], args[1])
				return cliutil.Saved(cmd, args[0], c, err)
			},
		},
	)
	return cmd
}

func iocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ioc",
		GroupID: Group.ID,
		Short:   "Edit the indicators of compromise",
	}
	var color, editingID string
	add := &cobra.Command{
		Use:   "add [id] [text]",
		Short: "Add an indicator, or update the one given with --edit",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and text
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.AddOrUpdateIOC(
				cmd.Context(), args[0], args[1], models.ColorTag(color), editingID)
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
	add.Flags().StringVar(&color, "color", string(models.DefaultIOCColor), "color tag")
	add.Flags().StringVar(&editingID, "edit", "", "id of the indicator to update")
	cmd.AddCommand(add, &cobra.Command{
		Use:   "rm [id] [ioc-id]",
		Short: "Remove an indicator",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and ioc id
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.RemoveIOC(cmd.Context(), args[0], args[1])
			return cliutil.Saved(cmd, args[0], c, err)
		},
	})
	return cmd
}

func timelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timeline",
		GroupID: Group.ID,
		Short:   "Edit the manual timeline",
	}
	var params casework.TimelineEventParams
	var color string
	add := &cobra.Command{
		Use:   "add [id]",
		Short: "Add a timeline event, or update the one given with --edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Color = models.ColorTag(color)
			c, err := cliutil.Workspace(cmd).Editor.AddOrUpdateTimelineEvent(cmd.Context(), args[0], params)
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
	f := add.Flags()
	f.StringVar(&params.Date, "date", "", "calendar date, YYYY-MM-DD")
	f.StringVar(&params.Time, "time", "", "time of day, HH:MM")
	f.StringVar(&params.Description, "desc", "", "what happened")
	f.StringVar(&color, "color", string(models.DefaultTimelineColor), "color tag")
	f.StringVar(&params.EditingID, "edit", "", "id of the event to update")
	cmd.AddCommand(add, &cobra.Command{
		Use:   "rm [id] [event-id]",
		Short: "Remove a timeline event",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and event id
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.RemoveTimelineEvent(cmd.Context(), args[0], args[1])
			return cliutil.Saved(cmd, args[0], c, err)
		},
	})
	return cmd
}

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		GroupID: Group.ID,
		Short:   "Edit the file/hash list of the general inspection step",
	}
	var editingID string
	add := &cobra.Command{
		Use:   "add [id] [file-name] [hash]",
		Short: "Add a file and its hash, or update the entry given with --edit",
		Args:  cobra.ExactArgs(3), //nolint:mnd // id, file name, and hash
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.AddOrUpdateFile(cmd.Context(), args[0],
				models.FileHashEntry{ID: editingID, FileName: args[1], Hash: args[2]})
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
	add.Flags().StringVar(&editingID, "edit", "", "id of the entry to update")
	cmd.AddCommand(add, &cobra.Command{
		Use:   "rm [id] [file-id]",
		Short: "Remove a file entry",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and file id
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.RemoveFile(cmd.Context(), args[0], args[1])
			return cliutil.Saved(cmd, args[0], c, err)
		},
	})
	return cmd
}

func packerCmd() *cobra.Command {
	var (
		packed bool
		name   string
	)
	cmd := &cobra.Command{
		Use:     "packer [id]",
		GroupID: Group.ID,
		Short:   "Record the packer detection result",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.SetPacker(cmd.Context(), args[0], packed, name)
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
	cmd.Flags().BoolVar(&packed, "packed", false, "the sample is packed")
	cmd.Flags().StringVar(&name, "name", "", "packer name, kept only when packed")
	return cmd
}
