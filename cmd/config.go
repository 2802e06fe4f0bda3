package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harshul/deploy-helper/internal/config"
	"github.com/harshul/deploy-helper/internal/kvstore"
	"github.com/harshul/deploy-helper/internal/migrate"
	"github.com/harshul/deploy-helper/internal/ui"
)

// configCmd groups the configuration document commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect, edit, back up and restore the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration (YAML by default)",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one top-level configuration field, or a raw store key with --raw",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one top-level configuration field",
	Long: `Set a top-level configuration field such as gitBashPath, tempPath or
registrySiteUrl. The value is parsed as JSON when possible, so arrays and
objects can be given inline; anything else is stored as a string.

With --raw the key is a dot path into the store file itself.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the whole store to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigExport,
}

var configImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a previously exported JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigImport,
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade the stored configuration to the current format",
	Args:  cobra.NoArgs,
	RunE:  runConfigMigrate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the store file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := storePath(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configShowCmd.Flags().Bool("json", false, "Print JSON instead of YAML")
	configShowCmd.Flags().Bool("show-secrets", false, "Print registry passwords unmasked")
	configGetCmd.Flags().Bool("raw", false, "Read a dot-path key from the store file")
	configSetCmd.Flags().Bool("raw", false, "Write a dot-path key in the store file")
	configImportCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	configMigrateCmd.Flags().Bool("dry-run", false, "Report what would change without saving")

	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configExportCmd,
		configImportCmd, configMigrateCmd, configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	showSecrets, _ := cmd.Flags().GetBool("show-secrets")

	cfg := a.store.Value()
	if !showSecrets {
		for i := range cfg.Projects {
			for env, cred := range cfg.Projects[i].DockerLogin {
				cred.Password = maskSecret(cred.Password)
				cfg.Projects[i].DockerLogin[env] = cred
			}
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	return writeYAML(cmd, data)
}

// writeYAML re-encodes a JSON document as YAML
func writeYAML(cmd *cobra.Command, data []byte) error {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetBool("raw")
	key := args[0]

	var value any
	if raw {
		value = a.host(nil).GetStoreValue(key)
	} else {
		var ok bool
		if value, ok = a.store.Get(key); !ok {
			return fmt.Errorf("%w: %q (use --raw for store keys)", config.ErrUnknownField, key)
		}
	}
	return printValue(cmd, value)
}

func printValue(cmd *cobra.Command, value any) error {
	if s, ok := value.(string); ok {
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// parseValue decodes s as JSON, falling back to the literal string
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetBool("raw")
	key, value := args[0], parseValue(args[1])

	if raw {
		if err := a.host(nil).SetStoreValue(key, value); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Set %s", key))
		return nil
	}

	// Text fields keep the literal text even when it looks like JSON
	if current, ok := a.store.Get(key); ok {
		if _, isString := current.(string); isString {
			value = args[1]
		}
	}
	if err := a.store.Set(key, value); err != nil {
		return err
	}
	if err := a.save(); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Set %s", key))
	return nil
}

func runConfigExport(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.host(nil).ExportConfig(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Exported configuration to %s", args[0]))
	return nil
}

func runConfigImport(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(args[0]); err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !a.noTUI {
		ok, err := ui.RunYesNoPrompt("Replace the current configuration?",
			fmt.Sprintf("Keys in %s overwrite the same keys in %s", args[0], a.kv.Path()), false)
		if err != nil {
			return err
		}
		if !ok {
			ui.PrintInfo("Import cancelled")
			return nil
		}
	}

	if err := a.host(nil).ImportConfig(args[0]); err != nil {
		return err
	}

	cfg := a.store.Value()
	ui.PrintSuccess(fmt.Sprintf("Imported %s", args[0]))
	ui.PrintHighlight("Config version", fmt.Sprint(cfg.ConfigVersion))
	ui.PrintHighlight("Projects", fmt.Sprint(len(cfg.Projects)))
	ui.PrintHighlight("Steps", fmt.Sprint(len(cfg.Steps)))
	return nil
}

func forwardVersionMessage(stored, latest int) string {
	return fmt.Sprintf("Stored version %d is newer than this build (latest %d); leaving it untouched", stored, latest)
}

func runConfigMigrate(cmd *cobra.Command, args []string) error {
	path, err := storePath(cmd)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var doc migrate.Document
	found, err := kvstore.New(path).Lookup(config.StoreKey, &doc)
	if err != nil {
		return err
	}
	if !found || doc == nil {
		doc = config.DefaultDocument()
	}

	pipeline := migrate.Default()
	_, outcome := pipeline.Migrate(doc)
	out := cmd.OutOrStdout()
	switch {
	case outcome.Forward:
		ui.PrintWarning(forwardVersionMessage(outcome.From, pipeline.Latest()))
		return nil
	case outcome.Forced:
		ui.PrintWarning(fmt.Sprintf("Unknown stored version; marking as version %d without transforms", outcome.To))
	case !outcome.Changed():
		ui.PrintSuccess(fmt.Sprintf("Configuration is already at version %d", outcome.To))
		return nil
	default:
		fmt.Fprintf(out, "Version %d → %d\n", outcome.From, outcome.To)
		for _, name := range outcome.Applied {
			fmt.Fprintf(out, "  • %s\n", name)
		}
	}

	if dryRun {
		ui.PrintInfo("Dry run: nothing was saved")
		return nil
	}
	// Loading migrates and writes the document back
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if a.degraded {
		return errUnreadableStore
	}
	ui.PrintSuccess(fmt.Sprintf("Saved version %d to %s", a.store.Value().ConfigVersion, strings.TrimSpace(a.kv.Path())))
	return nil
}
