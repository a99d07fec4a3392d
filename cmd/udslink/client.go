package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udslink/udslink/internal/client"
	"github.com/udslink/udslink/internal/protocol"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Exercise the server with the example requests",
	RunE:  runClient,
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := client.Dial(cfg.SocketPath, cfg.Client.ConnectRetries)
	if err != nil {
		return err
	}
	defer c.Close()

	major, minor, err := c.GetVersion()
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	fmt.Printf("Version: %d.%d\n", major, minor)

	message, err := c.GetMessage()
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	fmt.Printf("Message: %s\n", message)

	if err := c.PutMessage("This is a message from client"); err != nil {
		return fmt.Errorf("put message: %w", err)
	}
	fmt.Println("Put message OK")

	// An unrecognized command should come back as a status, not an error.
	resp, err := c.Send(protocol.Command(0xFFFF), nil)
	if err != nil {
		return fmt.Errorf("unknown command: %w", err)
	}
	fmt.Printf("Unknown command status: %d\n", resp.Status())

	return nil
}
