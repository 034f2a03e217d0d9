package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/database"
	"github.com/collabkit/collab/document"
	"github.com/collabkit/collab/folder"
	"github.com/collabkit/collab/internal/crdt"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <doc-state-file>",
	Short: "Decode a doc-state file and print a summary of its contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	docState, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read doc state: %w", err)
	}

	obj, err := collab.Open(docState, collab.Origin{ClientUID: 0, DeviceID: "collabctl"}, "inspect", 0, collab.Options{})
	if err != nil {
		return fmt.Errorf("decode doc state: %w", err)
	}
	defer obj.Close()

	root := obj.Root()
	switch {
	case hasRootKey(root, "document"):
		doc, err := document.Open(obj)
		if err != nil {
			return fmt.Errorf("open document body: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "kind: document\npage_id: %s\n", doc.PageID())
	case hasRootKey(root, "folder"):
		f, err := folder.Open(obj, collab.SystemClock{})
		if err != nil {
			return fmt.Errorf("open folder body: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "kind: folder\nworkspace_id: %s\n", f.WorkspaceID())
	case hasRootKey(root, "database"):
		d, err := database.Open(obj, nil)
		if err != nil {
			return fmt.Errorf("open database body: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "kind: database\ndatabase_id: %s\nprimary_view_id: %s\nfields: %d\nviews: %d\n",
			d.DatabaseID(), d.InlineViewID(), d.Fields().Len(), len(d.ViewIDs()))
	default:
		return fmt.Errorf("%w: doc state has no recognized body", collab.ErrInvalidData)
	}
	return nil
}

func hasRootKey(root *crdt.Map, key string) bool {
	_, ok := root.GetMap(key)
	return ok
}
