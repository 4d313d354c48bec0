package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/readtube/internal"
)

// resummarizeCmd summarizes the user's corrected transcript locally
var resummarizeCmd = &cobra.Command{
	Use:   "resummarize [ID]",
	Short: "Summarize your corrected transcript with OpenAI",
	Long: `Generate a fresh summary from your corrections instead of the model output.

The backend summary is based on the raw transcription. After fixing names and
terms with "readtube edit" or "readtube play", this command summarizes the
corrected text locally. Requires OPENAI_API_KEY.`,
	Example: `  # Summarize with the configured model
  readtube resummarize 42

  # Use a specific model and prompt
  readtube resummarize 42 --model gpt-4o --prompt "Three bullet points: {{.Transcript}}"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateOpenAIRequirements(cmd, config); err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		summary, err := app.Resummarize(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(summary)
		return nil
	},
}

func init() {
	internal.AddOpenAIFlags(resummarizeCmd)
	rootCmd.AddCommand(resummarizeCmd)
}
