// Command radvd6 is an IPv6 Router Advertisement daemon for a single
// network interface, per RFC 4861 §6.2.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/sixbone/radvd6/internal/eventloop"
	"github.com/sixbone/radvd6/internal/ifmon"
	"github.com/sixbone/radvd6/internal/ndp"
	"github.com/sixbone/radvd6/internal/radconf"
	"github.com/sixbone/radvd6/internal/randsrc"
	"github.com/sixbone/radvd6/internal/scheduler"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses flags, wires up the daemon, and runs it to completion. It
// returns the process exit code per spec.md §6.1: 0 on -h, 1 on any
// validation or startup error, and otherwise the exit code of a fatal
// runtime I/O error from the event loop.
func run(args []string) (code int) {
	cfg, flagErr := parseFlags(args)
	if flagErr == flag.ErrHelp {
		return 0
	} else if flagErr != nil {
		fmt.Fprintln(os.Stderr, flagErr)

		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %s\n", err)

		return 1
	}

	logger := slogutil.New(&slogutil.Config{
		Format:       slogutil.FormatAdGuardLegacy,
		Level:        slog.LevelInfo,
		AddTimestamp: true,
	})

	logger.Info(
		"starting",
		"ifname", cfg.IfName,
		"prefixes", len(cfg.Prefixes),
		"rdnss", len(cfg.RDNSS),
		"default_lifetime", cfg.DefaultLifetime,
	)

	if err := runDaemon(context.Background(), logger, cfg); err != nil {
		logger.Error("exiting", slogutil.KeyError, err)

		return 1
	}

	return 0
}

// runDaemon wires the interface monitor, ICMPv6 transport, scheduler, and
// event loop together and runs until ctx is done or a fatal error occurs.
// radvd6 installs no signal handlers of its own, per spec.md §6.3: SIGINT
// and SIGTERM fall through to the Go runtime's default (process exit).
func runDaemon(ctx context.Context, logger *slog.Logger, cfg *radconf.Config) (err error) {
	rand, err := randsrc.NewSystem()
	if err != nil {
		return fmt.Errorf("seeding random source: %w", err)
	}

	endpoint, err := ndp.NewEndpoint(logger.With(slogutil.KeyPrefix, "icmp"))
	if err != nil {
		return fmt.Errorf("opening icmpv6 socket: %w", err)
	}
	defer func() { _ = endpoint.Close() }()

	notifier, err := ifmon.DialNotifier()
	if err != nil {
		return fmt.Errorf("opening kernel notification channel: %w", err)
	}
	defer func() { _ = notifier.Close() }()

	sched := scheduler.New(timeutil.SystemClock{}, rand)

	monitor := ifmon.New(
		logger.With(slogutil.KeyPrefix, "ifmon"),
		cfg.IfName,
		endpoint,
		func() { sched.Schedule(true) },
	)

	loop := eventloop.New(
		logger.With(slogutil.KeyPrefix, "eventloop"),
		cfg,
		endpoint,
		notifier,
		monitor,
		sched,
	)

	return loop.Run(ctx)
}

// parseFlags parses args into a [*radconf.Config], per spec.md §6.1. It
// returns flag.ErrHelp on -h.
func parseFlags(args []string) (cfg *radconf.Config, err error) {
	fs := flag.NewFlagSet("radvd6", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s -i <ifname> (-a <prefix>|-p <prefix>)+ [--default-lifetime <seconds>] [--rdnss <ipv6>]*\n\n", fs.Name())
		fs.PrintDefaults()
	}

	ifName := fs.String("i", "", "interface to advertise on (required)")
	defaultLifetime := fs.Uint("default-lifetime", 0, "router lifetime advertised in seconds (0-65535)")

	prefixes := make([]radconf.Prefix, 0, radconf.MaxPrefixes)
	rdnss := make([]netip.Addr, 0, radconf.MaxRDNSS)

	fs.Var(&prefixFlag{onLink: false, dest: &prefixes}, "a", "off-link prefix to advertise, repeatable")
	fs.Var(&prefixFlag{onLink: true, dest: &prefixes}, "p", "on-link prefix to advertise, repeatable")
	fs.Var(&rdnssFlag{dest: &rdnss}, "rdnss", "recursive DNS server address, repeatable")

	if err = fs.Parse(args); err != nil {
		return nil, err
	}

	if *defaultLifetime > 65535 {
		return nil, fmt.Errorf("default-lifetime: %d exceeds 65535", *defaultLifetime)
	}

	return &radconf.Config{
		IfName:          *ifName,
		Prefixes:        prefixes,
		RDNSS:           rdnss,
		DefaultLifetime: uint16(*defaultLifetime),
	}, nil
}

// prefixFlag implements [flag.Value], accumulating repeated -a/-p
// occurrences into dest in command-line order, tagging each with onLink.
type prefixFlag struct {
	onLink bool
	dest   *[]radconf.Prefix
}

func (f *prefixFlag) String() string { return "" }

func (f *prefixFlag) Set(s string) error {
	addrPart := s
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		var lenPart string
		addrPart, lenPart = s[:idx], s[idx+1:]
		if lenPart != "64" {
			return fmt.Errorf("prefix %q: only /64 is supported", s)
		}
	}

	addr, err := netip.ParseAddr(addrPart)
	if err != nil {
		return fmt.Errorf("prefix %q: %w", s, err)
	}

	*f.dest = append(*f.dest, radconf.Prefix{Addr: addr, OnLink: f.onLink})

	return nil
}

// rdnssFlag implements [flag.Value], accumulating repeated --rdnss
// occurrences into dest in command-line order.
type rdnssFlag struct {
	dest *[]netip.Addr
}

func (f *rdnssFlag) String() string { return "" }

func (f *rdnssFlag) Set(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return fmt.Errorf("rdnss %q: %w", s, err)
	}

	*f.dest = append(*f.dest, addr)

	return nil
}
