package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

const jsonTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// runKeys maps the subject fields to their key inside the "run" object.
var runKeys = map[string]string{
	FieldRunID:    "id",
	FieldStage:    "stage",
	FieldFilename: "file",
}

// jsonHandler emits one JSON object per record. The subject fields attached
// by WithContext are collected into a nested "run" object so a log shipper can
// index a whole organize pass by run.id.
type jsonHandler struct {
	inner   slog.Handler
	run     []slog.Attr
	grouped bool
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &jsonHandler{inner: slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})}
}

func (h *jsonHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *jsonHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.grouped {
		return h.inner.Handle(ctx, record)
	}
	run := slices.Clone(h.run)
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		if _, ok := runKeys[attr.Key]; ok {
			run = setRunAttr(run, attr)
		} else {
			out.AddAttrs(attr)
		}
		return true
	})
	if len(run) > 0 {
		group := make([]any, 0, len(run))
		for _, attr := range run {
			group = append(group, slog.Attr{Key: runKeys[attr.Key], Value: attr.Value})
		}
		out.AddAttrs(slog.Group("run", group...))
	}
	return h.inner.Handle(ctx, out)
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if h.grouped {
		return &jsonHandler{inner: h.inner.WithAttrs(attrs), grouped: true}
	}
	run := slices.Clone(h.run)
	rest := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := runKeys[attr.Key]; ok {
			run = setRunAttr(run, attr)
		} else {
			rest = append(rest, attr)
		}
	}
	inner := h.inner
	if len(rest) > 0 {
		inner = inner.WithAttrs(rest)
	}
	return &jsonHandler{inner: inner, run: run}
}

// WithGroup stops lifting subject fields. Fields already collected would
// otherwise land inside the group when the record is written.
func (h *jsonHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	inner := h.inner
	if len(h.run) > 0 {
		inner = inner.WithAttrs(h.run)
	}
	return &jsonHandler{inner: inner.WithGroup(name), grouped: true}
}

// setRunAttr replaces an earlier value for the same key so the innermost
// context wins.
func setRunAttr(run []slog.Attr, attr slog.Attr) []slog.Attr {
	for i := range run {
		if run[i].Key == attr.Key {
			run[i] = attr
			return run
		}
	}
	return append(run, attr)
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() == slog.KindTime {
				return slog.String("ts", attr.Value.Time().UTC().Format(jsonTimestampLayout))
			}
			attr.Key = "ts"
			return attr
		case slog.LevelKey:
			return slog.String("level", strings.ToLower(attr.Value.String()))
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				return slog.String("source", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return attr
		}
	}
	if attr.Value.Kind() == slog.KindDuration {
		attr.Value = slog.StringValue(formatValue(attr.Value))
	}
	return attr
}
