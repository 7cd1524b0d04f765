package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/svbridge/internal/resolver"
	"github.com/desertthunder/svbridge/internal/shared"
)

// Resolve prints the config (or full task request) the bridge would send for one integration.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	base, err := readJSONObject(cmd.String("base"))
	if err != nil {
		return err
	}
	overrides, err := readJSONObject(cmd.String("overrides"))
	if err != nil {
		return err
	}

	id := resolver.Identity{IntegrationID: cmd.String("integration"), Platform: cmd.String("platform")}
	if cmd.Bool("envelope") {
		return r.writeJSON(resolver.BuildTaskRequest(id, overrides, base), cmd.Bool("pretty"))
	}
	return r.writeJSON(resolver.Resolve(id, base, overrides), cmd.Bool("pretty"))
}

// readJSONObject reads a JSON object from path. A blank path is an empty object.
func readJSONObject(path string) (map[string]any, error) {
	out := map[string]any{}
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object: %v", shared.ErrInvalidInput, path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
