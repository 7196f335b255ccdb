package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage model profiles",
	Long:  `Manage profiles for the local inference servers and models you chat with.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range cfg.ProfileNames() {
			profile := cfg.Profiles[name]
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			fmt.Printf("    Model: %s\n", profile.Model)
			fmt.Printf("    Base URL: %s\n", profile.BaseURL)
			fmt.Println()
		}
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := args[0]
		raw, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}
		profile := raw.WithDefaults()

		fmt.Printf("Profile: %s\n", profileName)
		fmt.Printf("Model: %s\n", profile.Model)
		fmt.Printf("Base URL: %s\n", profile.BaseURL)
		hasKey := "Not set"
		if profile.APIKey != "" {
			hasKey = "Set (hidden for security)"
		}
		fmt.Printf("API Key: %s\n", hasKey)
		fmt.Printf("Max Tokens: %d\n", profile.MaxTokens)
		fmt.Printf("Temperature: %.2f\n", *profile.Temperature)
		fmt.Printf("Sampling: %t\n", *profile.DoSample)
		fmt.Printf("Warmup: %t\n", profile.Warmup)
		fmt.Printf("System Prompt: %s\n", profile.SystemPrompt)
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			profileName = promptString("Profile name", "", false)
		}

		if _, exists := cfg.Profiles[profileName]; exists {
			log.Fatalf("Profile '%s' already exists", profileName)
		}

		cfg.Profiles[profileName] = promptProfile(config.NewProfile(config.DefaultBaseURL, config.DefaultModel))

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' added successfully!\n", profileName)
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := profileArg(args, cfg.ProfileNames(), "Select profile to edit")
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		cfg.Profiles[profileName] = promptProfile(profile.WithDefaults())

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' updated successfully!\n", profileName)
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := profileArg(args, cfg.ProfileNames(), "Select profile to delete")

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'? (y/N)", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return
		}

		if err := cfg.DeleteProfile(profileName); err != nil {
			log.Fatalf("%v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' deleted successfully! Active profile is now '%s'.\n", profileName, cfg.ActiveProfile)
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		var others []string
		for _, name := range cfg.ProfileNames() {
			if name != cfg.ActiveProfile {
				others = append(others, name)
			}
		}
		if len(args) == 0 && len(others) == 0 {
			fmt.Println("No other profiles available to switch to")
			return
		}

		profileName := profileArg(args, others, "Select profile to switch to")
		if err := cfg.UseProfile(profileName); err != nil {
			log.Fatalf("%v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Switched to profile '%s'\n", profileName)
	},
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}

func mustLoadConfig() *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// profileArg returns args[0] or lets the user pick from names.
func profileArg(args []string, names []string, label string) string {
	if len(args) > 0 {
		return args[0]
	}
	if len(names) == 0 {
		log.Fatalf("No profiles available")
	}
	prompt := promptui.Select{
		Label: label,
		Items: names,
	}
	_, name, err := prompt.Run()
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	return name
}

func promptProfile(p config.Profile) config.Profile {
	p.BaseURL = promptString("Base URL", p.BaseURL, false)
	p.Model = promptString("Model", p.Model, false)
	p.APIKey = promptString("API Key (optional)", p.APIKey, true)

	maxTokens, _ := strconv.Atoi(promptValidated("Max tokens", strconv.Itoa(p.MaxTokens), func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fmt.Errorf("enter a positive number")
		}
		return nil
	}))
	p.MaxTokens = maxTokens

	temp, _ := strconv.ParseFloat(promptValidated("Temperature", strconv.FormatFloat(float64(*p.Temperature), 'f', -1, 32), func(s string) error {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("enter a number between 0 and 2")
		}
		return nil
	}), 32)
	t := float32(temp)
	p.Temperature = &t

	sample := promptYesNo("Enable sampling", *p.DoSample)
	p.DoSample = &sample
	p.Warmup = promptYesNo("Warm up the model on start", p.Warmup)
	p.SystemPrompt = promptString("System prompt", p.SystemPrompt, false)
	return p
}

func promptString(label, def string, mask bool) string {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	if mask {
		prompt.Mask = '*'
	}
	value, err := prompt.Run()
	if err != nil {
		log.Fatalf("Prompt failed: %v", err)
	}
	return value
}

func promptValidated(label, def string, validate promptui.ValidateFunc) string {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	value, err := prompt.Run()
	if err != nil {
		log.Fatalf("Prompt failed: %v", err)
	}
	return value
}

func promptYesNo(label string, def bool) bool {
	items := []string{"Yes", "No"}
	cursor := 0
	if !def {
		cursor = 1
	}
	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	return idx == 0
}
