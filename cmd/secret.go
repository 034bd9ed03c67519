package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"mongoctl/internal/config"
	"mongoctl/internal/kube"
)

var (
	secretField string
	secretShow  bool
	secretCopy  bool
)

// clipboardWriteAll is a test seam for the clipboard dependency.
var clipboardWriteAll = clipboard.WriteAll

var secretCmdDef = &cobra.Command{
	Use:   "secret",
	Short: "Read the MongoDB credentials Secret",
	Long: `Fetches the MongoDB credentials Secret (default "mongodb-credentials")
from the configured namespace and prints its fields. Values are masked unless
--show is given. --field selects a single key; --copy puts that value on the
clipboard without printing it.`,
	Args: cobra.NoArgs,
	RunE: runSecret,
}

func newSecretCmd() *cobra.Command {
	secretCmdDef.Flags().StringVar(&secretField, "field", "", "Print only this field of the secret")
	secretCmdDef.Flags().BoolVar(&secretShow, "show", false, "Print values in clear text")
	secretCmdDef.Flags().BoolVar(&secretCopy, "copy", false, "Copy the selected field's value to the clipboard (requires --field)")
	return secretCmdDef
}

func runSecret(cmd *cobra.Command, args []string) error {
	if secretCopy && secretField == "" {
		return fmt.Errorf("--copy requires --field")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	data, err := kube.GetSecret(cmd.Context(), cfg.KubeContext, cfg.Namespace, cfg.SecretName)
	if err != nil {
		return fmt.Errorf("reading secret %s/%s: %w", cfg.Namespace, cfg.SecretName, err)
	}

	if secretField != "" {
		value, ok := data[secretField]
		if !ok {
			return fmt.Errorf("secret %s/%s has no field %q (has: %s)",
				cfg.Namespace, cfg.SecretName, secretField, strings.Join(fieldNames(data), ", "))
		}
		if secretCopy {
			if err := clipboardWriteAll(string(value)); err != nil {
				return fmt.Errorf("copying to clipboard: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to the clipboard.\n", secretField)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSecretValue(value, secretShow))
		return nil
	}

	for _, name := range fieldNames(data) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, renderSecretValue(data[name], secretShow))
	}
	return nil
}

func fieldNames(data map[string][]byte) []string {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func renderSecretValue(value []byte, show bool) string {
	if show {
		return string(value)
	}
	return strings.Repeat("*", len(value))
}
