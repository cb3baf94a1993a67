package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"filesort/internal/buckets"
	"filesort/internal/catalog"
	"filesort/internal/organizer"
	"filesort/internal/prefixindex"
	"filesort/internal/testsupport"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}, {"y", "z", "dropped"}}, nil)
	requireContains(t, out, "x")
	requireContains(t, out, "z")
	if strings.Contains(out, "dropped") {
		t.Fatalf("extra cell rendered: %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestBuildRequestOverrides(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNoExtensionFolder("misc"))

	req, err := buildRequest(cfg, organizeOverrides{})
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Source != cfg.Paths.SourceDir || req.NoExtensionFolder != "misc" || req.DryRun {
		t.Fatalf("unexpected request %+v", req)
	}

	empty := ""
	dry := true
	other := filepath.Join(t.TempDir(), "elsewhere")
	req, err = buildRequest(cfg, organizeOverrides{destination: other, noExtFolder: &empty, dryRun: &dry})
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.Destination != other || req.NoExtensionFolder != "" || !req.DryRun {
		t.Fatalf("overrides not applied: %+v", req)
	}
}

func TestRelativeFolder(t *testing.T) {
	dest := filepath.Join("/srv", "sorted")
	tests := map[string]string{
		filepath.Join(dest, "notes"):                      ".",
		filepath.Join(dest, "pdf", "a.pdf"):               "pdf",
		filepath.Join(dest, "images", "cat", "c.png"):     "images/cat",
		filepath.Join(dest, "images", "others", "d.jpeg"): "images/others",
	}
	for target, want := range tests {
		if got := relativeFolder(dest, target); got != want {
			t.Fatalf("relativeFolder(%q) = %q, want %q", target, got, want)
		}
	}
}

func TestRecordRunStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	names := []string{"a.txt"}
	res := &organizer.Result{
		RunID:       "11111111-0000-0000-0000-000000000000",
		Source:      cfg.Paths.SourceDir,
		Destination: cfg.Paths.DestinationDir,
		Index:       prefixindex.FromNames(names),
		Buckets:     buckets.Build(names),
	}
	if err := recordRun(ctx, store, organizer.Request{}, res, context.Canceled); err != nil {
		t.Fatalf("recordRun: %v", err)
	}
	run, err := store.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != catalog.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", run.Status)
	}

	res.RunID = "22222222-0000-0000-0000-000000000000"
	if err := recordRun(ctx, store, organizer.Request{}, res, errors.New("boom")); err != nil {
		t.Fatalf("recordRun: %v", err)
	}
	run, err = store.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != catalog.StatusFailed {
		t.Fatalf("status = %q, want failed", run.Status)
	}

	if err := recordRun(ctx, store, organizer.Request{}, nil, errors.New("early")); err != nil {
		t.Fatalf("recordRun nil result: %v", err)
	}
}
