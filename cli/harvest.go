// Package cli wires the harvester's packages into the dorkmail command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"dorkmail/common"
	"dorkmail/crawler"
	"dorkmail/emails"
	"dorkmail/fetcher"
	"dorkmail/helper"
	"dorkmail/history"
	"dorkmail/lib"
	"dorkmail/logger"
	"dorkmail/pinning"
)

// Runner performs one harvesting run. The zero value uses the system trust
// store, the configured search engine and the configured delays.
type Runner struct {
	Out io.Writer

	// Trust replaces the system trust store.
	Trust *pinning.StandardTrustStore
	// Engine replaces the configured search engine.
	Engine common.SearchEngine
	// Pacer replaces the configured delay range.
	Pacer crawler.Pacer
	// Logger replaces the log file logger.
	Logger logger.Interface
}

// Result is what a run produced.
type Result struct {
	Query       string
	Fingerprint string
	Report      *crawler.Report
	Emails      []emails.EmailDetails
	EmailsFile  string
	Change      *history.Change
}

// Run crawls, extracts and reports. A certificate fingerprint mismatch is
// returned as an error matching pinning.ErrFingerprintMismatch.
func (r *Runner) Run(ctx context.Context, cfg *lib.Configuration) (*Result, error) {
	if r.Out == nil {
		r.Out = os.Stdout
	}

	log, err := r.logger(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = log.Sync() }()

	engine := r.Engine
	if engine == nil {
		if engine, err = common.NewSearchEngine(cfg.Engine); err != nil {
			return nil, err
		}
	}

	result := &Result{Query: common.Dork(cfg.Domain)}
	helper.InfoFprintln(r.Out, "[+] Search query:", result.Query)

	connector, fingerprint, err := r.connector(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = fingerprint

	var proxies *fetcher.ProxyPool
	if cfg.ProxyFile != "" {
		if proxies, err = fetcher.LoadProxies(cfg.ProxyFile, log); err != nil {
			return nil, err
		}
		helper.InfoFprintln(r.Out, "[+] Loaded proxies:", proxies.Len())
	}

	f, err := fetcher.New(fetcher.Options{
		Connector: connector,
		Timeout:   cfg.Timeout,
		Proxies:   proxies,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	if cfg.KeepHistory {
		rotated, err := history.Rotate(cfg.OutputFolder)
		if err != nil {
			return nil, fmt.Errorf("rotate previous results: %w", err)
		}
		if rotated {
			helper.InfoFprintln(r.Out, "[+] Previous results moved to", history.OldFolder(cfg.OutputFolder))
		}
	}

	sink, err := crawler.NewFolderSink(cfg.OutputFolder, cfg.Pretty)
	if err != nil {
		return nil, err
	}

	pacer := r.Pacer
	if pacer == nil {
		pacer = crawler.RandomDelay{Min: cfg.MinDelay, Max: cfg.MaxDelay}
	}
	c, err := crawler.New(crawler.Options{Fetcher: f, Engine: engine, Pacer: pacer, Logger: log})
	if err != nil {
		return nil, err
	}

	helper.InfoFprintln(r.Out, "[+] Downloading pages from", engine.Name(), "into", cfg.OutputFolder)
	report, err := c.Crawl(ctx, result.Query, cfg.MaxResults, sink)
	result.Report = report
	if err != nil {
		if errors.Is(err, pinning.ErrFingerprintMismatch) {
			helper.AlertFprintln(r.Out, "[!] Certificate fingerprint mismatch, the connection may be intercepted:", err)
		}
		return result, err
	}

	extractor, err := emails.NewExtractor(cfg.Domain, log)
	if err != nil {
		return result, err
	}
	result.Emails = extractor.Extract(report.Paths())

	addrs := emails.Addresses(result.Emails)
	if result.EmailsFile, err = history.WriteEmails(cfg.OutputFolder, addrs); err != nil {
		return result, fmt.Errorf("write email list: %w", err)
	}
	if cfg.KeepHistory {
		if result.Change, err = history.Compare(cfg.OutputFolder); err != nil {
			log.Warn("Failed to compare with previous run", "error", err)
		}
	}

	printEmails(r.Out, result)
	printSummary(r.Out, cfg, engine, result)
	return result, nil
}

func (r *Runner) logger(cfg *lib.Configuration) (logger.Interface, error) {
	if r.Logger != nil {
		return r.Logger, nil
	}

	lc := logger.Config{Level: "info", Encoding: "json", OutputPaths: []string{cfg.LogFile}}
	if cfg.Debug {
		lc.Level = "debug"
		lc.OutputPaths = append(lc.OutputPaths, "stderr")
		helper.SetVerbose(true)
	}
	log, err := logger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// connector returns the TLS connector for the run and the fingerprint it
// enforces on the target domain, if any.
func (r *Runner) connector(ctx context.Context, cfg *lib.Configuration, log logger.Interface) (pinning.Connector, string, error) {
	trust := pinning.NewStandardTrustStore()
	if r.Trust != nil {
		copied := *r.Trust
		trust = &copied
	}
	trust.DialTimeout = cfg.Timeout

	if cfg.NoPin {
		helper.InfoFprintln(r.Out, "[+] Certificate pinning disabled")
		return trust, "", nil
	}

	host, port, err := helper.HostPort(cfg.Domain)
	if err != nil {
		return nil, "", err
	}

	fingerprint := cfg.Pin
	if fingerprint == "" {
		if fingerprint, err = pinning.Bootstrap(ctx, host, port, trust); err != nil {
			return nil, "", fmt.Errorf("failed to obtain certificate fingerprint: %w", err)
		}
		log.Info("Pinned certificate fingerprint from first handshake", "host", host, "fingerprint", fingerprint)
	}

	policy := pinning.NewPolicy()
	if err := policy.Pin(host, fingerprint); err != nil {
		return nil, "", err
	}
	helper.InfoFprintln(r.Out, "[+] Pinned fingerprint for", host+":", fingerprint)
	return pinning.NewPinnedPublicKey(trust, policy), fingerprint, nil
}
