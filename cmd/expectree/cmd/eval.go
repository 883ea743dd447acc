package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solatis/expectree/internal/check"
	"github.com/solatis/expectree/internal/codec"
	"github.com/solatis/expectree/internal/core/logging"
	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/render"
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/types"
)

// errNotFulfilled is returned under --strict when the root did not pass.
var errNotFulfilled = errors.New("expectations not fulfilled")

var evalCmd = &cobra.Command{
	Use:   "eval TREE",
	Short: "Evaluate a tree against facts and explicit assignments",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().String("facts", "", "JSON or YAML facts file to run checks against")
	evalCmd.Flags().StringArray("set", nil, "assign a status, selector=STATUS (repeatable; selector is id, alias, #tag or @group)")
	evalCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	evalCmd.Flags().String("write", "", "write the evaluated document, with statuses, to this path")
	evalCmd.Flags().Bool("reset", false, "ignore statuses stored in the tree document")
	evalCmd.Flags().Bool("strict", false, "exit non-zero unless the root is PASSED")
	evalCmd.Flags().Int("concurrency", 0, "concurrent checks (default from config)")
}

// Report is the structured output of eval.
type Report struct {
	Status   types.Status   `json:"status" yaml:"status"`
	Summary  *check.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Statuses eval.StatusMap `json:"statuses" yaml:"statuses"`
	Snapshot *eval.Snapshot `json:"snapshot" yaml:"snapshot"`
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	reset, _ := cmd.Flags().GetBool("reset")
	t, err := loadTree(args[0], reset)
	if err != nil {
		return err
	}

	var summary *check.Summary
	if factsPath, _ := cmd.Flags().GetString("facts"); factsPath != "" {
		facts, err := codec.ReadFacts(factsPath)
		if err != nil {
			return err
		}
		registry, err := check.DefaultRegistry()
		if err != nil {
			return err
		}
		concurrency := cfg.Checks.Concurrency
		if cmd.Flags().Changed("concurrency") {
			concurrency, _ = cmd.Flags().GetInt("concurrency")
		}
		runner := &check.Runner{Registry: registry, Concurrency: concurrency, Logger: logger}
		s, err := runner.Run(ctx, t, facts)
		if err != nil {
			logger.Warn("some checks failed", "error", err)
		}
		summary = &s
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	if len(sets) > 0 {
		updates, err := parseAssignments(t, sets)
		if err != nil {
			return err
		}
		if err := t.Update(updates); err != nil {
			return err
		}
	}

	st := t.State()
	logger.Info("evaluated", "tree", args[0], "status", st.Status(), "leaves", len(st.Root().Leaves()))

	if out, _ := cmd.Flags().GetString("write"); out != "" {
		doc, err := codec.ExportTree(t, codec.ExportOptions{IncludeStatuses: true})
		if err != nil {
			return err
		}
		if err := codec.WriteFile(out, doc); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
	}

	output, _ := cmd.Flags().GetString("output")
	if err := writeReport(cmd.OutOrStdout(), output, st, summary); err != nil {
		return err
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && !st.IsFulfilled() {
		return fmt.Errorf("%w: root is %s", errNotFulfilled, st.Status())
	}
	return nil
}

func writeReport(w io.Writer, output string, st *state.State, summary *check.Summary) error {
	if output == "text" {
		_, err := fmt.Fprintln(w, render.ASCII(st.Root(), render.FromSnapshot(st.Snapshot())))
		return err
	}
	format, err := codec.ParseFormat(output)
	if err != nil {
		return err
	}
	return codec.EncodeValue(w, Report{
		Status:   st.Status(),
		Summary:  summary,
		Statuses: st.Statuses(),
		Snapshot: st.Snapshot(),
	}, format)
}
