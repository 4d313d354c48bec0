package internal

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// OutputFormats are accepted by --format
var OutputFormats = []string{"text", "json", "yaml"}

// AddSubmitFlags adds flags for submitting work to the backend
func AddSubmitFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Processing mode: transcribe or summarize (default from config)")
	cmd.Flags().Bool("public", false, "Share the result publicly")
	cmd.Flags().BoolP("wait", "w", false, "Wait for processing to finish")
}

// SubmitOptions reads the flags added by AddSubmitFlags
func SubmitOptions(cmd *cobra.Command) (mode string, public *bool, err error) {
	mode, err = cmd.Flags().GetString("mode")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get mode flag: %w", err)
	}
	if mode != "" && !slices.Contains(ValidModes, mode) {
		return "", nil, fmt.Errorf("invalid mode %q (valid: %s)", mode, strings.Join(ValidModes, ", "))
	}

	// only send is_public when the flag was given explicitly
	if f := cmd.Flags().Lookup("public"); f != nil && f.Changed {
		v, err := cmd.Flags().GetBool("public")
		if err != nil {
			return "", nil, fmt.Errorf("failed to get public flag: %w", err)
		}
		public = &v
	}
	return mode, public, nil
}

// AddReferenceFlag adds --reference for a local human subtitle file
func AddReferenceFlag(cmd *cobra.Command) {
	cmd.Flags().String("reference", "", "Reference subtitles (.srt) to anchor the comparison")
}

// AddFormatFlag adds --format for structured output
func AddFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
}

// FormatFlag reads and validates --format
func FormatFlag(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", fmt.Errorf("failed to get format flag: %w", err)
	}
	if !slices.Contains(OutputFormats, format) {
		return "", fmt.Errorf("invalid format %q (valid: %s)", format, strings.Join(OutputFormats, ", "))
	}
	return format, nil
}

// AddOpenAIFlags adds flags related to OpenAI API functionality
func AddOpenAIFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "OpenAI model to use for summaries")
	cmd.Flags().StringP("prompt", "p", "", "Custom prompt (string or file path)")
}

// HandlePromptFlag processes the --prompt flag to set custom prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}

	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if IsLikelyFilePath(prompt) && FileExists(prompt) {
		app.ui.Verbose("Using custom prompt file: %s\n", prompt)
	} else {
		app.ui.Verbose("Using custom prompt string\n")
	}

	return nil
}

// HandleOutputFlags applies --verbose and --quiet to the config
func HandleOutputFlags(cmd *cobra.Command, config *Config) error {
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		config.Verbose = verbose
	}
	if f := cmd.Flags().Lookup("quiet"); f != nil && f.Changed {
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		config.Quiet = quiet
	}
	return nil
}

// ValidateOpenAIRequirements validates OpenAI API key and model from command flags and config
func ValidateOpenAIRequirements(cmd *cobra.Command, config *Config) error {
	if err := ValidateOpenAIAPIKey(config.OpenAIAPIKey); err != nil {
		return err
	}

	modelFlag, _ := cmd.Flags().GetString("model")
	if modelFlag != "" {
		if err := ValidateModel(modelFlag); err != nil {
			return err
		}
		config.SummaryModel = modelFlag
	} else if err := ValidateModel(config.SummaryModel); err != nil {
		return fmt.Errorf("invalid model in config: %w", err)
	}

	return nil
}
