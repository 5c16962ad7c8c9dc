package cmd

import (
	"errors"
	"fmt"

	dbservice "github.com/agnosto/dm-archiver/db/service"
	"github.com/spf13/cobra"
)

type deleteFlags struct {
	post      int64
	tombstone int64
	cascade   bool
}

func newDeleteCommand() *cobra.Command {
	var flags deleteFlags

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an archived post or a deleted-post record",
		Example: `  dm-archiver delete --post 1234567890
  dm-archiver delete --post 1234567890 --cascade=false
  dm-archiver delete --tombstone 1234567890`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openArchive()
			if err != nil {
				return err
			}
			defer database.Close()

			reports := dbservice.NewReportService(database.DB)
			out := cmd.OutOrStdout()

			if flags.post != 0 {
				removed, err := reports.DeletePost(flags.post, flags.cascade)
				if err != nil {
					return deleteError("post", flags.post, err)
				}
				fmt.Fprintf(out, "Deleted post %d (%d orphaned comments removed)\n", flags.post, removed)
				return nil
			}

			if err := reports.DeleteTombstone(flags.tombstone); err != nil {
				return deleteError("deleted-post record", flags.tombstone, err)
			}
			fmt.Fprintf(out, "Deleted deleted-post record %d\n", flags.tombstone)
			return nil
		},
	}

	cmd.Flags().Int64Var(&flags.post, "post", 0, "Platform id of the archived post to delete")
	cmd.Flags().Int64Var(&flags.tombstone, "tombstone", 0, "Platform id of the deleted-post record to delete")
	cmd.Flags().BoolVar(&flags.cascade, "cascade", true, "Also delete comments no other post uses")
	cmd.MarkFlagsOneRequired("post", "tombstone")
	cmd.MarkFlagsMutuallyExclusive("post", "tombstone")
	return cmd
}

func deleteError(kind string, id int64, err error) error {
	if errors.Is(err, dbservice.ErrNotFound) {
		return fmt.Errorf("no %s with id %d", kind, id)
	}
	return fmt.Errorf("delete %s %d: %w", kind, id, err)
}
