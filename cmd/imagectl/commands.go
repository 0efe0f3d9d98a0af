package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"go-raffle-images/internal/editor"
	"go-raffle-images/internal/imagestore"
	"go-raffle-images/pkg/validation"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List images in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()
			fmt.Fprintln(cmd.OutOrStdout(), renderImages(s.form.Images()))
			return nil
		},
	}
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, closeAll, err := openUploads(args)
			if err != nil {
				return err
			}
			defer closeAll()

			s, err := ctx.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.editor.Upload(cmd.Context(), uploads); err != nil {
				return err
			}
			if err := s.persist(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderImages(s.form.Images()))
			return nil
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete the image at a display position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePosition(args[0])
			if err != nil {
				return err
			}

			s, err := ctx.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()
			images := s.form.Images()
			if index >= len(images) {
				return fmt.Errorf("no image at position %d (%d images)", index, len(images))
			}
			if err := s.editor.Delete(cmd.Context(), index, images[index].ID); err != nil {
				return err
			}
			if err := s.persist(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderImages(s.form.Images()))
			return nil
		},
	}
}

func newReorderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder FROM TO",
		Short: "Move an image to another display position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			to, err := parsePosition(args[1])
			if err != nil {
				return err
			}

			s, err := ctx.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.editor.Reorder(cmd.Context(), from, to); err != nil {
				return err
			}
			if err := s.persist(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderImages(s.form.Images()))
			if s.editor.Mode() != editor.ModeEdit {
				fmt.Fprintln(out, "Order is kept until the images are attached to a raffle (--raffle)")
			}
			return nil
		},
	}
}

func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	return n, nil
}

// openUploads stats and sniffs each file; the returned func closes them all
func openUploads(paths []string) ([]imagestore.Upload, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	uploads := make([]imagestore.Upload, 0, len(paths))
	for _, path := range paths {
		contentType, err := validation.DetectContentType(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)

		info, err := f.Stat()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		uploads = append(uploads, imagestore.Upload{
			Name:        filepath.Base(path),
			Size:        info.Size(),
			ContentType: contentType,
			Content:     f,
		})
	}
	return uploads, closeAll, nil
}
