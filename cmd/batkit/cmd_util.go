package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"batkit/internal/setup"
)

var showPathOut string

// utilCmd groups the structure and output utilities
var utilCmd = &cobra.Command{
	Use:   "util",
	Short: "Structure and output file utilities",
}

var supercellCmd = &cobra.Command{
	Use:   "supercell [structure-file] [AxBxC]",
	Short: "Write a supercell expansion of a structure file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scaling, err := parseSupercell(args[1])
		if err != nil {
			return err
		}
		out, err := setup.MakeSupercell(args[0], scaling)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var printCmd = &cobra.Command{
	Use:   "print [structure-file]",
	Short: "Print a summary of a structure file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := setup.Describe(args[0])
		if err != nil {
			return err
		}
		fmt.Print(summary)
		return nil
	},
}

var dataCmd = &cobra.Command{
	Use:   "data [OUTCAR]",
	Short: "Extract the main results of a run into data.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := setup.ExtractData(args[0])
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var showPathCmd = &cobra.Command{
	Use:   "show-path [directory]",
	Short: "Superimpose the images of a finished NEB run into one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setup.ShowPath(args[0], showPathOut)
	},
}

// parseSupercell parses an "AxBxC" scaling spec, e.g. "2x2x1".
func parseSupercell(spec string) ([3]int, error) {
	parts := strings.Split(strings.ToLower(spec), "x")
	if len(parts) != 3 {
		return [3]int{}, fmt.Errorf("supercell spec must be AxBxC, got %q", spec)
	}
	var out [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return [3]int{}, fmt.Errorf("invalid supercell factor %q", p)
		}
		out[i] = n
	}
	return out, nil
}

func init() {
	showPathCmd.Flags().StringVar(&showPathOut, "out", "path.vasp", "output structure file")
	utilCmd.AddCommand(supercellCmd, printCmd, dataCmd, showPathCmd)
	rootCmd.AddCommand(utilCmd)
}
