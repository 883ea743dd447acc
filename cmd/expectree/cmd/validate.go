package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/expectree/internal/check"
	"github.com/solatis/expectree/internal/codec"
	"github.com/solatis/expectree/internal/core/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate TREE...",
	Short: "Check tree documents for structural and spec errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "treat leaves of unregistered kinds as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())
	strict, _ := cmd.Flags().GetBool("strict")

	registry, err := check.DefaultRegistry()
	if err != nil {
		return err
	}

	var errs []error
	for _, path := range args {
		doc, err := codec.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		root, err := codec.ImportRoot(doc, codec.ImportOptions{PreserveIDs: true})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		for _, leaf := range root.Leaves() {
			err := registry.Validate(leaf.Spec())
			switch {
			case err == nil:
			case errors.Is(err, check.ErrUnknownKind) && !strict:
				logger.Warn("unregistered kind", "file", path, "id", leaf.ID(), "kind", leaf.Kind())
			default:
				errs = append(errs, fmt.Errorf("%s: %s: %w", path, leaf.ID(), err))
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d leaves\n", path, len(root.Leaves()))
	}
	return errors.Join(errs...)
}
