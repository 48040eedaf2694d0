package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/comments-engine/internal/attachments"
	"github.com/pribylovaa/comments-engine/internal/composition"
	"github.com/pribylovaa/comments-engine/internal/models"
	"github.com/pribylovaa/comments-engine/internal/service"
)

// opError — код выхода по ошибке операции: локальная валидация — ошибка
// использования, остальное — сбой операции.
func opError(msg string, err error) error {
	if errors.Is(err, service.ErrValidation) {
		return WrapExitError(ExitCommandError, msg, err)
	}
	return WrapExitError(ExitFailure, msg, err)
}

func (o *RootOptions) out(cmd *cobra.Command) printer {
	return printer{format: o.Format, w: cmd.OutOrStdout()}
}

// NewListCommand — list <thread>.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "list <thread>",
		Short: "Load a thread and print the flattened reply tree",
		Long: `Load the first page of a thread, then follow pagination up to --pages,
and print comments in display order: depth-first, replies indented under
their parent, sibling order as returned by the backend.`,
		Args: exactArgs(1),
		RunE: rootOpts.run(func(ctx context.Context, _ *engine, ctl *service.Controller, cmd *cobra.Command, _ []string) error {
			if pages < 1 {
				return NewExitError(ExitCommandError, "--pages must be >= 1")
			}

			if err := ctl.LoadPage(ctx, 1); err != nil {
				return opError("load page 1", err)
			}

			for n := 2; n <= pages && ctl.State().HasMore; n++ {
				if err := ctl.LoadPage(ctx, n); err != nil {
					return opError(fmt.Sprintf("load page %d", n), err)
				}
			}

			v := newListView(ctl.State())
			return rootOpts.out(cmd).print(v, func(w io.Writer) error { return writeListText(w, v) })
		}),
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")

	return cmd
}

// NewCountCommand — count <thread>.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count <thread>",
		Short: "Print the total number of comments in a thread",
		Args:  exactArgs(1),
		RunE: rootOpts.run(func(ctx context.Context, _ *engine, ctl *service.Controller, cmd *cobra.Command, _ []string) error {
			n, err := ctl.LoadCount(ctx)
			if err != nil {
				return opError("load count", err)
			}

			v := countView{Thread: ctl.ThreadID(), Count: n}
			return rootOpts.out(cmd).print(v, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s: %d comments\n", v.Thread, v.Count)
				return err
			})
		}),
	}
}

// NewPostCommand — post <thread>.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		text     string
		authorID string
		author   string
		parent   string
		images   []string
	)

	cmd := &cobra.Command{
		Use:   "post <thread>",
		Short: "Post a root comment or a reply",
		Long: `Post a comment to a thread. With --parent the comment is a reply.
Up to 3 images (jpeg, png, gif, webp, 5 MiB each) may be attached with
repeated --image flags; they are checked before anything is sent.`,
		Args: exactArgs(1),
		RunE: rootOpts.run(func(ctx context.Context, e *engine, ctl *service.Controller, cmd *cobra.Command, _ []string) error {
			files := make([]attachments.File, 0, len(images))
			for _, p := range images {
				f, err := attachments.FileFromPath(p)
				if err != nil {
					return WrapExitError(ExitCommandError, "read image", err)
				}
				files = append(files, f)
			}

			if parent != "" {
				e.reg.Composition().OpenReply(composition.Target{ThreadID: ctl.ThreadID(), CommentID: parent})
			}

			created, err := ctl.SubmitComment(ctx, service.SubmitInput{
				Text:           text,
				AuthorID:       models.ID(authorID),
				AuthorUsername: author,
				ParentID:       models.ID(parent),
				Images:         files,
			})
			if err != nil {
				return opError("post comment", err)
			}

			v := actionView{Thread: ctl.ThreadID(), Action: "create", CommentID: created.ID.String()}
			if n, ok := ctl.LastCount(); ok {
				v.Total = &n
			}

			return rootOpts.out(cmd).print(v, func(w io.Writer) error { return writeActionText(w, v) })
		}),
	}

	cmd.Flags().StringVar(&text, "text", "", "comment text (at least 3 characters)")
	cmd.Flags().StringVar(&authorID, "author-id", "", "author telegram id")
	cmd.Flags().StringVar(&author, "author", "", "author username")
	cmd.Flags().StringVar(&parent, "parent", "", "id of the comment to reply to")
	cmd.Flags().StringArrayVar(&images, "image", nil, "path to an image to attach (repeatable)")

	return cmd
}

// NewDeleteCommand — delete <thread> <comment>.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var requester string

	cmd := &cobra.Command{
		Use:   "delete <thread> <comment>",
		Short: "Delete a comment on behalf of its author",
		Long: `Delete a comment. The backend checks that --requester is the author;
deleted comments stay in the tree as tombstones.`,
		Args: exactArgs(2),
		RunE: rootOpts.run(func(ctx context.Context, _ *engine, ctl *service.Controller, cmd *cobra.Command, args []string) error {
			if err := ctl.DeleteComment(ctx, models.ID(args[1]), models.ID(requester)); err != nil {
				return opError("delete comment", err)
			}

			v := actionView{Thread: ctl.ThreadID(), Action: "delete", CommentID: args[1]}
			if n, ok := ctl.LastCount(); ok {
				v.Total = &n
			}

			return rootOpts.out(cmd).print(v, func(w io.Writer) error { return writeActionText(w, v) })
		}),
	}

	cmd.Flags().StringVar(&requester, "requester", "", "telegram id of the user deleting the comment")

	return cmd
}

// NewReportCommand — report <thread> <comment>.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		reporter    string
		reason      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "report <thread> <comment>",
		Short: "Report a comment to moderators",
		Long:  `Report a comment. --reason is one of: spam, offensive, inappropriate, other.`,
		Args:  exactArgs(2),
		RunE: rootOpts.run(func(ctx context.Context, e *engine, ctl *service.Controller, cmd *cobra.Command, args []string) error {
			r, err := models.ParseReportReason(reason)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --reason", err)
			}

			e.reg.Composition().OpenReport(composition.Target{ThreadID: ctl.ThreadID(), CommentID: args[1]})

			if err := ctl.ReportComment(ctx, models.ID(args[1]), models.ID(reporter), r, description); err != nil {
				return opError("report comment", err)
			}

			v := actionView{Thread: ctl.ThreadID(), Action: "report", CommentID: args[1]}
			return rootOpts.out(cmd).print(v, func(w io.Writer) error { return writeActionText(w, v) })
		}),
	}

	cmd.Flags().StringVar(&reporter, "reporter", "", "telegram id of the reporting user")
	cmd.Flags().StringVar(&reason, "reason", "", "spam|offensive|inappropriate|other")
	cmd.Flags().StringVar(&description, "description", "", "optional free-form details")

	return cmd
}
