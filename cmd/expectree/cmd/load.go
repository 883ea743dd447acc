package cmd

import (
	"fmt"
	"strings"

	"github.com/solatis/expectree/internal/codec"
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/types"
)

// loadTree imports the document at path with the configured id generator.
func loadTree(path string, ignoreStatuses bool) (*state.Tree, error) {
	doc, err := codec.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ids, err := cfg.IDGenerator()
	if err != nil {
		return nil, err
	}
	t, err := codec.Import(doc, codec.ImportOptions{
		PreserveIDs:    true,
		IgnoreStatuses: ignoreStatuses,
		IDs:            ids,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return t, nil
}

// parseAssignments reads --set values of the form selector=STATUS.
func parseAssignments(t *state.Tree, sets []string) (map[types.NodeID]types.Status, error) {
	updates := make(map[types.NodeID]types.Status, len(sets))
	for _, s := range sets {
		sel, statusStr, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want selector=STATUS", s)
		}
		status, err := types.ParseStatus(statusStr)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		leaf, err := t.Leaf(sel)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		updates[leaf.ID()] = status
	}
	return updates, nil
}
