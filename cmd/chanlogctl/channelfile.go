package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/chanlog"
	"github.com/user/chanlog/internal/composite"
	"github.com/user/chanlog/internal/logging"
	"github.com/user/chanlog/pkg/writer/filewriter"
	"github.com/user/chanlog/pkg/writer/httpwriter"
	"github.com/user/chanlog/pkg/writer/kafkawriter"
	"github.com/user/chanlog/pkg/writer/natswriter"
	"github.com/user/chanlog/pkg/writer/rediswriter"
	"github.com/user/chanlog/pkg/writer/stdoutwriter"
)

// channelFile is the declarative shape chanlogctl replays into a live
// Manager: one or more channels, each with sinks whose conditions and
// writer configuration are spelled out up front. There is no equivalent
// in the source protocol — sinks there are installed by a running
// program, not a config file — but it gives the CLI something concrete
// to create/list/inspect without requiring a network API.
type channelFile struct {
	Channels []channelSpec `yaml:"channels"`
}

type channelSpec struct {
	ID    string     `yaml:"id"`
	Sinks []sinkSpec `yaml:"sinks"`
}

type sinkSpec struct {
	ID        string          `yaml:"id"`
	Condition conditionSpec   `yaml:"condition"`
	Writer    writerSpec      `yaml:"writer"`
	Lifetime  *lifetimeSpec   `yaml:"lifetime,omitempty"`
	Composite []childSinkSpec `yaml:"composite,omitempty"`
}

type childSinkSpec struct {
	ID     string     `yaml:"id"`
	Writer writerSpec `yaml:"writer"`
}

type conditionSpec struct {
	Severity    string   `yaml:"severity"`
	Low         string   `yaml:"low"`
	High        string   `yaml:"high"`
	Set         []string `yaml:"set"`
	Application string   `yaml:"application"`
	Module      string   `yaml:"module"`
}

type writerSpec struct {
	Type string `yaml:"type"` // stdout, file, http, kafka, nats, redis

	Path string `yaml:"path,omitempty"` // file

	URL     string            `yaml:"url,omitempty"` // http, nats
	Headers map[string]string `yaml:"headers,omitempty"`

	Brokers []string `yaml:"brokers,omitempty"` // kafka
	Topic   string   `yaml:"topic,omitempty"`

	Subject string `yaml:"subject,omitempty"` // nats

	Addr     string `yaml:"addr,omitempty"` // redis
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Stream   string `yaml:"stream,omitempty"`
}

type lifetimeSpec struct {
	DurationMS int64 `yaml:"duration_ms"`
}

func loadChannelFile(path string) (*channelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel file: %w", err)
	}
	var cf channelFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse channel file: %w", err)
	}
	return &cf, nil
}

func buildCondition(spec conditionSpec) (chanlog.Condition, error) {
	var cond chanlog.Condition
	switch {
	case len(spec.Set) > 0:
		sevs := make([]chanlog.Severity, 0, len(spec.Set))
		for _, name := range spec.Set {
			s, err := chanlog.ParseSeverity(name)
			if err != nil {
				return chanlog.Condition{}, err
			}
			sevs = append(sevs, s)
		}
		cond = chanlog.SeveritySet(sevs...)
	case spec.Low != "" || spec.High != "":
		low, err := chanlog.ParseSeverity(spec.Low)
		if err != nil {
			return chanlog.Condition{}, err
		}
		high, err := chanlog.ParseSeverity(spec.High)
		if err != nil {
			return chanlog.Condition{}, err
		}
		cond = chanlog.RangeOf(low, high)
	default:
		s, err := chanlog.ParseSeverity(spec.Severity)
		if err != nil {
			return chanlog.Condition{}, err
		}
		cond = chanlog.Threshold(s)
	}
	if spec.Application != "" {
		cond = cond.WithApplication(spec.Application)
	}
	if spec.Module != "" {
		cond = cond.WithModule(spec.Module)
	}
	return cond, nil
}

func buildWriter(spec writerSpec) (chanlog.Writer, error) {
	switch spec.Type {
	case "", "stdout":
		return stdoutwriter.New(), nil
	case "file":
		return filewriter.New(filewriter.Config{Path: spec.Path})
	case "http":
		return httpwriter.New(httpwriter.Config{URL: spec.URL, Headers: spec.Headers})
	case "kafka":
		return kafkawriter.New(kafkawriter.Config{Brokers: spec.Brokers, Topic: spec.Topic})
	case "nats":
		return natswriter.New(natswriter.Config{URL: spec.URL, Subject: spec.Subject})
	case "redis":
		return rediswriter.New(rediswriter.Config{Addr: spec.Addr, Password: spec.Password, DB: spec.DB, Stream: spec.Stream})
	default:
		return nil, fmt.Errorf("unknown writer type %q", spec.Type)
	}
}

func buildSinkHandle(spec sinkSpec, compositeInitialWait time.Duration) (chanlog.SinkHandle, chanlog.InstallOptions, error) {
	cond, err := buildCondition(spec.Condition)
	if err != nil {
		return chanlog.SinkHandle{}, chanlog.InstallOptions{}, err
	}

	var start chanlog.StartSpec
	if len(spec.Composite) > 0 {
		children := make([]composite.Child, 0, len(spec.Composite))
		for _, c := range spec.Composite {
			w, err := buildWriter(c.Writer)
			if err != nil {
				return chanlog.SinkHandle{}, chanlog.InstallOptions{}, err
			}
			children = append(children, composite.Child{ID: c.ID, Writer: chanlog.StartSpec{Immediate: w}})
		}
		diag := logging.NewDefault()
		start = chanlog.StartSpec{
			Start: func(ctx context.Context, publish func(chanlog.Writer)) {
				coord := composite.New(spec.ID, children, compositeInitialWait, func(childID string) {
					diag.Report(chanlog.Diagnostic{Kind: chanlog.DiagnosticCompositeWaitTimeout, SinkID: childID})
				})
				go func() {
					<-ctx.Done()
					coord.Close()
				}()
				coord.Start(publish)
			},
		}
	} else {
		w, err := buildWriter(spec.Writer)
		if err != nil {
			return chanlog.SinkHandle{}, chanlog.InstallOptions{}, err
		}
		start = chanlog.StartSpec{Immediate: w}
	}

	handle := chanlog.SinkHandle{ID: spec.ID, Condition: cond, Writer: start}

	opts := chanlog.InstallOptions{IfExists: chanlog.IfExistsError}
	if spec.Lifetime != nil {
		opts.Lifetime = chanlog.Lifetime{Duration: spec.Lifetime.DurationMS}
	}
	return handle, opts, nil
}

// apply replays cf's channels and sinks onto a fresh Manager. compositeInitialWait
// is threaded into every composite sink's coordinator (chanlog process config's
// composite.initial_wait knob); zero uses composite.DefaultInitialWait.
func apply(cf *channelFile, diag chanlog.Diagnostics, compositeInitialWait time.Duration) (*chanlog.Manager, error) {
	mgr := chanlog.NewManager(diag)
	for _, chSpec := range cf.Channels {
		if err := mgr.CreateChannel(chSpec.ID); err != nil {
			return nil, fmt.Errorf("channel %s: %w", chSpec.ID, err)
		}
		for _, sinkSpec := range chSpec.Sinks {
			handle, opts, err := buildSinkHandle(sinkSpec, compositeInitialWait)
			if err != nil {
				return nil, fmt.Errorf("channel %s sink %s: %w", chSpec.ID, sinkSpec.ID, err)
			}
			if _, err := mgr.InstallSink(chSpec.ID, handle, opts); err != nil {
				return nil, fmt.Errorf("channel %s sink %s: %w", chSpec.ID, sinkSpec.ID, err)
			}
		}
	}
	return mgr, nil
}
