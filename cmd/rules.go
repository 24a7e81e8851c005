package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"menuscan/internal/menu"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective menu rules as TOML",
	Long: `Print the menu rules in effect: the built-in rules merged with the
file given by --rules or MENU_RULES_FILE.

Rules cover section header patterns, restaurant title patterns, dietary
tag tokens, garnish phrases and the geometric thresholds used to match
standalone price lines to items. Use --sample to write the built-in
rules as a starting point for a custom file.`,
	Example: `  # Show the rules in effect
  menuscan rules --rules my-rules.toml

  # Write the built-in rules to a file
  menuscan rules --sample -o my-rules.toml`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().Bool("sample", false, "Print the built-in rules, ignoring any rules file")
	rulesCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	rulesCmd.Flags().Bool("overwrite", false, "Overwrite the output file if it exists")
}

func runRules(cmd *cobra.Command, args []string) error {
	sample, _ := cmd.Flags().GetBool("sample")
	outputPath, _ := cmd.Flags().GetString("output")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	set := menu.DefaultRuleSet()
	if !sample {
		rules, err := loadMenuRules(cmd)
		if err != nil {
			return err
		}
		set = rules.RuleSet()
	}

	data, err := set.EncodeTOML()
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if !overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("rules file already exists at %s (use --overwrite to replace it)", outputPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("check rules path: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote menu rules to %s\n", outputPath)
	return nil
}
