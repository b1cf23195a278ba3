package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"quorum/internal/platform/config"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/store"

	"quorum/internal/adapters/providers/emaildisc"
	"quorum/internal/adapters/providers/identitygraph"
	"quorum/internal/adapters/providers/mailverify"
	"quorum/internal/adapters/providers/research"
	"quorum/internal/core/icp"
	"quorum/internal/core/version"
	"quorum/internal/modkit"
	"quorum/internal/modkit/module"
	bgdomain "quorum/internal/services/buyergroups/domain"
	bgmod "quorum/internal/services/buyergroups/module"
	"quorum/internal/services/discovery"
	"quorum/internal/services/orchestrator"
	"quorum/internal/services/orchestrator/guardrails"
	"quorum/internal/services/runlog"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("QUORUM_PGSQL_")
	chCfg := root.Prefix("QUORUM_CLICKHOUSE_")
	provCfg := root.Prefix("QUORUM_PROVIDER_")

	l := logger.Get()

	var (
		fMode      = flag.String("mode", "run", "discover mode: run | once | audit")
		fWorkspace = flag.String("workspace", "default", "workspace to operate on")
		fProfile   = flag.String("icp", "", "path to an ICP profile file (defaults to the built-in profile)")
		fCycles    = flag.Int("max-cycles", 12, "max scan/process cycles before giving up")
		fScanLimit = flag.Int("scan-limit", 50, "max companies picked up per cycle")
		fDelay     = flag.Duration("company-delay", 5*time.Second, "pause between companies")
		fPause     = flag.Duration("waterfall-pause", time.Second, "pause between per-candidate email calls")

		// once mode describes the single company on the command line
		fCompanyID = flag.String("company-id", "", "once mode: company id")
		fName      = flag.String("company-name", "", "once mode: company name")
		fDomain    = flag.String("company-domain", "", "once mode: company email domain")
		fNetwork   = flag.String("company-network", "", "once mode: company network profile URL")
	)
	flag.Parse()

	st, err := store.Open(context.Background(), store.Config{
		AppName: "quorum-discover",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:   chCfg.MayBool("ENABLED", false),
			URL:       chCfg.MayString("DBURL", ""),
			ClientTag: version.Info().Version,
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	profile := icp.Default(*fWorkspace)
	if *fProfile != "" {
		profile, err = icp.Load(*fProfile)
		if err != nil {
			l.Panic().Err(err).Str("path", *fProfile).Msg("bad ICP profile")
		}
	}

	sink := runlog.New(st.CH)

	pipeline := discovery.New(
		profile,
		discovery.GraphSourcer{Client: identitygraph.NewClient(identitygraph.Options{
			BaseURL: provCfg.MayString("GRAPH_URL", ""),
			KeysCSV: provCfg.MustString("GRAPH_KEYS"),
		})},
		discovery.ResearchSourcer{Client: research.NewClient(research.Options{
			BaseURL: provCfg.MayString("RESEARCH_URL", ""),
			APIKey:  provCfg.MustString("RESEARCH_KEY"),
		})},
		discovery.MailVerifier{Client: mailverify.NewClient(mailverify.Options{
			BaseURL: provCfg.MayString("VERIFY_URL", ""),
			APIKey:  provCfg.MustString("VERIFY_KEY"),
		})},
		discovery.EmailDiscoverer{Client: emaildisc.NewClient(emaildisc.Options{
			BaseURL: provCfg.MayString("DISCOVER_URL", ""),
			APIKey:  provCfg.MustString("DISCOVER_KEY"),
		})},
		sink,
		discovery.Options{WaterfallPause: *fPause},
	)

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}
	groups := bgmod.New(deps)
	module.Register(groups.Name(), groups.Ports())
	portfolio := module.MustPortsOf[bgmod.Ports](groups).Store

	orch := orchestrator.New(pipeline, portfolio, sink, orchestrator.Options{
		WorkspaceID:  *fWorkspace,
		MaxCycles:    *fCycles,
		ScanLimit:    *fScanLimit,
		CompanyDelay: *fDelay,
	})

	ctx := context.Background()

	switch *fMode {
	case "run":
		lease := guardrails.MakeRunLease(deps, "quorum-discover", 30*time.Minute)
		err := lease(ctx, *fWorkspace, func(ctx context.Context) error {
			report, err := orch.Run(ctx)
			if err != nil {
				l.Error().Err(err).Str("run_id", report.RunID).Msg("run aborted")
			}
			return err
		})
		if errors.Is(err, guardrails.ErrLeaseHeld) {
			l.Warn().Str("workspace", *fWorkspace).Msg("another run owns this workspace; exiting")
			return
		}
		if err != nil {
			l.Fatal().Err(err).Msg("run failed")
		}

	case "once":
		if *fCompanyID == "" {
			// no company given: one scan/process pass over the portfolio
			single := orchestrator.New(pipeline, portfolio, sink, orchestrator.Options{
				WorkspaceID:  *fWorkspace,
				MaxCycles:    1,
				ScanLimit:    *fScanLimit,
				CompanyDelay: *fDelay,
			})
			if report, err := single.Run(ctx); err != nil {
				l.Fatal().Err(err).Str("run_id", report.RunID).Msg("pass failed")
			}
			return
		}
		if *fName == "" {
			l.Panic().Msg("once mode: -company-name is required with -company-id")
		}
		company := bgdomain.Company{
			ID:          *fCompanyID,
			WorkspaceID: *fWorkspace,
			Name:        *fName,
			Domain:      *fDomain,
			NetworkURL:  *fNetwork,
		}
		asm, err := pipeline.Discover(ctx, orchestrator.TargetOf(company))
		if err != nil {
			l.Fatal().Err(err).Msg("discovery failed")
		}
		res, err := portfolio.Upsert(ctx, company, asm)
		if err != nil {
			l.Fatal().Err(err).Msg("persist failed")
		}
		l.Info().
			Str("group_id", res.GroupID).
			Int("members", res.MembersWritten).
			Int("created_people", res.PeopleCreated).
			Msg("company processed")

	case "audit":
		report, err := orch.Audit(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("audit failed")
		}
		l.Info().Int("checked", report.Checked).Int("removed", report.Removed).Msg("audit done")

	default:
		l.Panic().Str("mode", *fMode).Msg("unknown -mode (expected: run | once | audit)")
	}
}
