package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// datasetPaths maps the names exposed by the API to the service routes.
var datasetPaths = map[string]string{
	"dataset":               "/dataset",
	"dataset-stats":         "/dataset-stats",
	"correlation-matrix":    "/correlation-matrix",
	"feature-distributions": "/feature-distributions",
	"outcome-analysis":      "/outcome-analysis",
	"model-comparison":      "/model-comparison",
	"feature-importance":    "/feature-importance",
	"model-info":            "/model-info",
}

// OverviewDatasets are fetched together by Overview.
var OverviewDatasets = []string{"dataset-stats", "model-info", "feature-importance", "outcome-analysis"}

// UnknownDatasetError is returned for names outside DatasetNames.
type UnknownDatasetError struct {
	Name string
}

func (e *UnknownDatasetError) Error() string {
	return fmt.Sprintf("unknown dataset %q", e.Name)
}

// DatasetNames lists the opaque statistics endpoints in sorted order.
func DatasetNames() []string {
	names := make([]string, 0, len(datasetPaths))
	for name := range datasetPaths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dataset fetches one opaque statistics payload. Its contents are passed
// through untouched.
func (c *Client) Dataset(ctx context.Context, name string) (json.RawMessage, error) {
	path, ok := datasetPaths[name]
	if !ok {
		return nil, &UnknownDatasetError{Name: name}
	}
	return c.get(ctx, path)
}

// Overview fetches OverviewDatasets concurrently. The first failure cancels
// the rest.
func (c *Client) Overview(ctx context.Context) (map[string]json.RawMessage, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]json.RawMessage, len(OverviewDatasets))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range OverviewDatasets {
		name := name
		g.Go(func() error {
			payload, err := c.Dataset(gctx, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			out[name] = payload
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Warn("dataset overview failed", zap.Error(err))
		return nil, err
	}
	return out, nil
}
