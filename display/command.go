package display

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// outputEnv selects JSON output for every command when set to "json"
const outputEnv = "SELOR_OUTPUT"

// ShouldOutputJSON determines if a command should output JSON based on flags and SELOR_OUTPUT
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return envWantsJSON()
	}

	// Explicit --json on the command wins, either way
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	// Check global --json flag
	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return envWantsJSON()
}

func envWantsJSON() bool {
	return strings.EqualFold(os.Getenv(outputEnv), "json")
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
