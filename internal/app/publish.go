package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/five82/ntdash/internal/archive"
	"github.com/five82/ntdash/internal/nt"
	"github.com/five82/ntdash/internal/value"
)

// publisherSuffix keeps one-shot publishers from replacing a running watch
// client that shares the configured identity.
const publisherSuffix = "-cli"

// Publish declares topic with the named type on a short-lived client, sends
// one value and waits for the backend to acknowledge it.
func Publish(ctx context.Context, opts Options, topic, typeName, raw string) error {
	tag, err := value.ParseTag(typeName)
	if err != nil {
		return err
	}
	v, err := parseValue(tag, raw)
	if err != nil {
		return err
	}

	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	client := nt.NewClient(rt.api, nt.WithLogger(rt.logger))
	connectCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	err = client.Connect(connectCtx, rt.cfg.Server, rt.cfg.Port, rt.cfg.Identity+publisherSuffix)
	cancel()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = client.Stop().Wait(context.Background()) }()

	t, err := client.DeclareTopic(topic, tag)
	if err != nil {
		return err
	}
	if err := t.Declared().Wait(ctx); err != nil {
		return fmt.Errorf("declare %s: %w", topic, err)
	}
	res, err := t.Publish(v)
	if err != nil {
		return err
	}
	if err := res.Wait(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	rt.logger.Info("published", zap.String("topic", topic), zap.Stringer("value", v))
	return nil
}

// parseValue reads a command-line value. Strings may be given bare; every
// other type is read as JSON.
func parseValue(tag value.Tag, raw string) (value.Value, error) {
	trimmed := strings.TrimSpace(raw)
	if tag == value.TagString && !strings.HasPrefix(trimmed, `"`) {
		return value.String(raw), nil
	}
	if trimmed == "" {
		return value.Value{}, fmt.Errorf("empty %s value", tag)
	}
	return value.Decode(tag, []byte(trimmed))
}

// History writes the archived samples for pattern as a table, one row per
// sample, ordered by path and then timestamp.
func History(ctx context.Context, opts Options, pattern string, w io.Writer) error {
	cfg, logger, err := load(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.ArchiveDir == "" {
		return errors.New("archive disabled: set archive_dir in the config")
	}

	arch, err := archive.Open(cfg.ArchiveDir, cfg.CompressionLevel)
	if err != nil {
		return err
	}
	defer arch.Close()

	store, err := arch.Load(ctx, archiveKey(cfg, pattern))
	if errors.Is(err, archive.ErrNotFound) {
		return fmt.Errorf("no archived history for %q", pattern)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTYPE\tTIMESTAMP\tVALUE")
	for _, path := range store.Paths() {
		samples, _ := store.History(path)
		for _, s := range samples {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", path, s.Tag(), uint64(s.Timestamp()), s.Value())
		}
	}
	return tw.Flush()
}
