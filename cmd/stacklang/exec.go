package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	stacklang "github.com/stacklang-dev/stacklang"
	"github.com/stacklang-dev/stacklang/vm"
)

var execListing bool

var execCmd = &cobra.Command{
	Use:   "exec FILE",
	Short: "Execute a compiled bytecode file",
	Args:  cobra.ExactArgs(1),
	Run:   execCommand,
}

func execCommand(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't open bytecode file")
	}
	defer f.Close()

	var prog vm.Program
	if err := prog.Deserialize(f); err != nil {
		log.Fatal().Err(err).Msg("Couldn't load bytecode")
	}

	if execListing {
		fmt.Print(prog.Listing())
	}

	bindings, err := stacklang.Execute(&prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		os.Exit(1)
	}
	fmt.Print(stacklang.FormatBindings(bindings))
}

func init() {
	execCmd.Flags().BoolVar(&execListing, "bytecode", false, "Print the bytecode listing before executing")
}
