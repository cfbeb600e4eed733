package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/questionnaire"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the active questionnaire",
	Long: `List the questions the chat asks, in order, with their answer kind.

The questionnaire comes from --file, questions_file in the config or
VALUATION_QUESTIONS, and falls back to the built-in valuation questionnaire.

Examples:
  # Show the questions
  valuation questions

  # Start a custom questionnaire from the built-in one
  valuation questions --yaml > my-questions.yaml

  # Check a custom questionnaire
  valuation questions --file my-questions.yaml`,
	Args: cobra.NoArgs,
	RunE: runQuestions,
}

var (
	questionsFile string
	questionsJSON bool
	questionsYAML bool
)

func init() {
	questionsCmd.Flags().StringVarP(&questionsFile, "file", "f", "", "questionnaire file to load instead of the configured one")
	questionsCmd.Flags().BoolVar(&questionsJSON, "json", false, "output the questionnaire as JSON")
	questionsCmd.Flags().BoolVar(&questionsYAML, "yaml", false, "output the questionnaire as YAML")
	questionsCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if questionsFile != "" {
		a.cfg.QuestionsFile = questionsFile
	}
	q, err := a.questions()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case questionsJSON:
		data, err := json.MarshalIndent(q, "", "  ")
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal questionnaire", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	case questionsYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(q); err != nil {
			return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal questionnaire", err)
		}
		return enc.Close()
	}

	printQuestionnaire(out, q)
	return nil
}

func printQuestionnaire(w io.Writer, q questionnaire.Questionnaire) {
	fmt.Fprintf(w, "%s (%d perguntas)\n", q.Name, len(q.Questions))
	if q.Description != "" {
		fmt.Fprintln(w, q.Description)
	}
	fmt.Fprintln(w)

	for i, question := range q.Questions {
		fmt.Fprintf(w, "%2d. %s\n", i+1, question.Prompt)
		fmt.Fprintf(w, "    id: %s  tipo: %s\n", question.ID, question.Kind)
		if question.Kind == conversation.KindSingleChoice {
			fmt.Fprintf(w, "    opções: %s\n", strings.Join(question.Choices, " | "))
		}
	}
}
