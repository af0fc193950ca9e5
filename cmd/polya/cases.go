package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/aretw0/polya/internal/cli"
	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var casesCmd = &cobra.Command{
	Use:   "cases [case]",
	Short: "List the worked cases, or show one stage by stage",
	Long: `Without arguments, lists the worked cases of the catalog. With a case number,
prints the problem and the worked content of each of the four stages.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := cli.NewEngine(cfg, logging.NewNop())
		if err != nil {
			return err
		}
		cat := engine.Catalog()

		if len(args) == 0 {
			if len(cat.Cases) == 0 {
				fmt.Println("No cases in the catalog.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tTITLE\tDIFFICULTY\tCATEGORY")
			for i, cs := range cat.Cases {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, cs.ID, cs.Title, cs.Difficulty, cs.Category)
			}
			return tw.Flush()
		}

		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid case number %q", args[0])
		}
		cs, err := cat.Case(n - 1)
		if err != nil {
			return err
		}
		plain, _ := cmd.Flags().GetBool("plain")
		render := tui.RendererFor(os.Stdout)
		if plain {
			render = tui.PlainRenderer
		}
		out, err := render(tui.CaseMarkdown(cs))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(casesCmd)
	casesCmd.Flags().Bool("plain", false, "Print raw markdown")
}
