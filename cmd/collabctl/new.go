package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/collabkit/collab"
	"github.com/collabkit/collab/database"
	"github.com/collabkit/collab/document"
	"github.com/collabkit/collab/folder"
	"github.com/collabkit/collab/internal/idgen"
)

var newCmd = &cobra.Command{
	Use:   "new document|folder|database",
	Short: "Create a fresh doc-state and write it to stdout (or --out)",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

var newOut string

func init() {
	newCmd.Flags().StringVar(&newOut, "out", "", "file to write the encoded doc state to (default: stdout)")
}

func runNew(cmd *cobra.Command, args []string) error {
	clientUID, _ := cmd.Flags().GetInt64("client-uid")
	deviceID, _ := cmd.Flags().GetString("device-id")
	origin := collab.Origin{ClientUID: clientUID, DeviceID: deviceID}
	objectID := idgen.New()

	obj := collab.New(origin, objectID, 1, collab.Options{})
	defer obj.Close()

	var err error
	switch args[0] {
	case "document":
		_, err = document.New(obj, collab.SystemClock{})
	case "folder":
		_, err = folder.New(obj, collab.SystemClock{}, idgen.New(), clientUID)
	case "database":
		_, err = database.New(obj, collab.SystemClock{}, nil, idgen.New(), idgen.New())
	default:
		return fmt.Errorf("%w: unknown body kind %q (want document, folder or database)", collab.ErrInvalidData, args[0])
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", args[0], err)
	}

	enc, err := obj.EncodeFull()
	if err != nil {
		return fmt.Errorf("encode doc state: %w", err)
	}

	if newOut == "" {
		_, err = os.Stdout.Write(enc.DocState)
		return err
	}
	return os.WriteFile(newOut, enc.DocState, 0o644)
}
