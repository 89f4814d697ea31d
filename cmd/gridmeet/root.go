package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the gridmeet command tree, grounded on the
// teacher's cmd/helix NewRootCmd shape.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gridmeet",
		Short: "Multipoint video conferencing server",
		Long:  "gridmeet composites incoming H.264/RTP streams from multiple clients into a single grid and fans the composite back out to every connected client.",
	}

	root.AddCommand(newServeCmd())
	return root
}
