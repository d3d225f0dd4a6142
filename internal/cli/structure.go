package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-interview/internal/generate"
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Interview template tools",
}

var structureCheckCmd = &cobra.Command{
	Use:   "check <file.yaml>",
	Short: "Validate an interview template",
	Args:  cobra.ExactArgs(1),
	RunE:  runStructureCheck,
}

func init() {
	rootCmd.AddCommand(structureCmd)
	structureCmd.AddCommand(structureCheckCmd)
}

func runStructureCheck(cmd *cobra.Command, args []string) error {
	tf, err := generate.LoadTemplate(args[0])
	if err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", err)
		return err
	}
	out := cmd.OutOrStdout()
	color.New(color.FgGreen).Fprintf(out, "%s: ok (%d sections, %d questions)\n",
		tf.Title, len(tf.Sections), tf.Structure().TotalQuestions())

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Section", "Questions", "Time limit"})
	for i, s := range tf.Sections {
		limit := "untimed"
		if s.TimeLimitMinutes > 0 {
			limit = fmt.Sprintf("%d min", s.TimeLimitMinutes)
		}
		table.Append([]string{fmt.Sprint(i + 1), s.Name, fmt.Sprint(len(s.Questions)), limit})
	}
	table.Render()
	return nil
}
