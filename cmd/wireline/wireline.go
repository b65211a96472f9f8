// Package wirelinecmder
package wirelinecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/wireline/cmd/wireline/config"
	servecmder "github.com/papercomputeco/wireline/cmd/wireline/serve"
	versioncmder "github.com/papercomputeco/wireline/cmd/version"
)

const wirelineLongDesc string = `Wireline is an OpenAI-compatible gateway for framed protobuf backends.

Callers speak standard chat-completion JSON and SSE; wireline translates
each request onto the backend's length-prefixed binary protocol and
translates the framed responses back.

Run the gateway using:
  wireline serve       Run the translation gateway`

const wirelineShortDesc string = "Wireline - Chat Completion Gateway"

func NewWirelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wireline",
		Short: wirelineShortDesc,
		Long:  wirelineLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml (default: ./.wireline or ~/.wireline)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
