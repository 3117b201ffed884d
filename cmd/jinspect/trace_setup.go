package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinspect/internal/trace"
)

// setupTracing builds the tracer requested by the settings and attaches it
// to the command context.
func (a *app) setupTracing(cmd *cobra.Command) error {
	s := a.settings
	level, err := trace.ParseLevel(s.TraceLevel)
	if err != nil {
		return err
	}

	// If level is off, skip tracing even when an output is given
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	format, err := trace.ParseFormat(s.TraceFormat)
	if err != nil {
		return err
	}
	mode, err := trace.ParseMode(s.TraceMode)
	if err != nil {
		return err
	}

	cfg := trace.Config{
		Level:  level,
		Mode:   mode,
		Format: format,
		Path:   s.Trace,
		Fs:     a.fs,
	}
	if mode != trace.ModeRing && (s.Trace == "" || s.Trace == "-") {
		cfg.Output = nopCloser{cmd.ErrOrStderr()}
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	a.tracer = tracer
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return nil
}

// closeTracing releases the tracer. When the command failed, the events kept
// in memory are dumped to w first.
func (a *app) closeTracing(w io.Writer, cmdErr error) {
	if a.tracer == nil {
		return
	}
	tracer := a.tracer
	a.tracer = nil

	var exit *exitError
	if rec := trace.RecorderOf(tracer); rec != nil && cmdErr != nil && !errors.As(cmdErr, &exit) {
		format, _ := trace.ParseFormat(a.settings.TraceFormat) //nolint:errcheck // validated in setupTracing
		if format != trace.FormatNDJSON {
			format = trace.FormatText
			fmt.Fprintf(w, "--- trace: last events before failure: %v ---\n", cmdErr)
		}
		if err := rec.Dump(w, format); err != nil {
			a.logger.Error("trace dump", "error", err)
		}
	}
	if err := tracer.Flush(); err != nil {
		a.logger.Error("trace flush", "error", err)
	}
	if err := tracer.Close(); err != nil {
		a.logger.Error("trace close", "error", err)
	}
}

// nopCloser hides Close so that closing the tracer never closes stderr.
type nopCloser struct{ io.Writer }
