package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/bucketstore/internal/client/client"
	"github.com/dmitrijs2005/bucketstore/internal/netx"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *App) keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Create or check bucket keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Create a bucket and print its key",
		Long: `Create a bucket and print its key.

The secret is printed once and cannot be recovered later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.client.IssueKey(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "keyId: %s\nkey: %s\n", creds.KeyID, creds.Secret)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the key and print its bucket id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.credentials()
			if err != nil {
				return err
			}
			bucket, err := a.client.VerifyKey(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "bucketId: %s\n", bucket)
			return nil
		},
	})

	return cmd
}

func (a *App) uploadKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-key",
		Short: "Issue a reusable upload token for the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.credentials()
			if err != nil {
				return err
			}
			token, err := a.client.IssueUploadKey(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "uploadId: %s\n", token)
			return nil
		},
	}
}

func (a *App) uploadCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:     "upload FILE...",
		Short:   "Upload files and print their ids",
		Example: `% bucketstore upload --key-id 8a0d7d2e-7a51-4d3e-9f0b-8f3a3b3d2c11 cat.png notes.txt`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts := make([]netx.FilePart, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				parts = append(parts, netx.FilePart{Name: filepath.Base(path), Content: f})
			}

			var ids []uuid.UUID
			if token != "" {
				id, err := uuid.Parse(token)
				if err != nil {
					return fmt.Errorf("upload token %q is not a UUID", token)
				}
				if ids, err = a.client.UploadWithToken(cmd.Context(), id, parts); err != nil {
					return err
				}
			} else {
				creds, err := a.credentials()
				if err != nil {
					return err
				}
				if ids, err = a.client.Upload(cmd.Context(), creds, parts); err != nil {
					return err
				}
			}

			for i, id := range ids {
				fmt.Fprintf(a.out, "%s\t%s\n", id, args[i])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&token, "token", "t", "", "upload with this token instead of a key")
	return cmd
}

func fileIDArg(args []string) (uuid.UUID, error) {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("file id %q is not a UUID", args[0])
	}
	return id, nil
}

func (a *App) downloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download FILE_ID",
		Short: "Download a file to stdout or --output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := fileIDArg(args)
			if err != nil {
				return err
			}
			creds, err := a.credentials()
			if err != nil {
				return err
			}

			var w io.Writer = a.out
			if output != "" && output != "-" {
				f, cerr := os.Create(output)
				if cerr != nil {
					return cerr
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
					if err != nil {
						_ = os.Remove(output)
					}
				}()
				w = f
			}

			_, err = a.client.Download(cmd.Context(), creds, id, w)
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("file %s: %w", id, err)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete FILE_ID",
		Short: "Remove a file from the bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := fileIDArg(args)
			if err != nil {
				return err
			}
			creds, err := a.credentials()
			if err != nil {
				return err
			}
			return a.client.Delete(cmd.Context(), creds, id)
		},
	}
}
