package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	stacklang "github.com/stacklang-dev/stacklang"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build FILE",
	Short: "Compile a script to a bytecode file",
	Args:  cobra.ExactArgs(1),
	Run:   buildCommand,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output path (defaults to the source name with a .sbc extension)")
}

func buildCommand(cmd *cobra.Command, args []string) {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't open script")
	}
	defer f.Close()

	prog, err := stacklang.Compile(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		os.Exit(1)
	}

	out := buildOutput
	if out == "" {
		out = strings.TrimSuffix(path, ".sl") + ".sbc"
	}
	w, err := os.Create(out)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't create output file")
	}
	defer w.Close()

	if err := prog.Serialize(w); err != nil {
		log.Fatal().Err(err).Msg("Couldn't write bytecode")
	}

	fp, err := prog.Fingerprint()
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't fingerprint program")
	}
	fmt.Printf("%s: %d ops, fingerprint %016x\n", out, len(prog.Ops), fp)
}
