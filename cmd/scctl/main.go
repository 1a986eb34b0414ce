// Command scctl runs single operations against an sc-server.
//
//	scctl [flags] keynodes <idtf>...
//	scctl [flags] types <addr>...
//	scctl [flags] content <addr>...
//	scctl [flags] search <text>...
//	scctl [flags] watch <addr> [event_type]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luciancaetano/scnet/client"
	"github.com/luciancaetano/scnet/internal/config"
	"github.com/luciancaetano/scnet/internal/observability"
	"github.com/luciancaetano/scnet/sc"
)

type options struct {
	configPath string
	url        string
	logLevel   string
	metrics    string
}

func main() {
	opts := parseFlags()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fatalf("%v", err)
	}
	if opts.url != "" {
		cfg.URL = opts.url
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.metrics != "" {
		cfg.MetricsAddr = opts.metrics
	}
	observability.InitLogger("scctl", observability.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer srv.Shutdown(context.Background())
	}

	c, err := client.New(cfg.Client())
	if err != nil {
		fatalf("%v", err)
	}
	defer c.Close(context.Background())

	if err := c.Connect(ctx, cfg.URL); err != nil {
		fatalf("connect %s: %v", cfg.URL, err)
	}
	if !c.IsConnected() {
		fatalf("connect %s: not open after %v", cfg.URL, cfg.EstablishTimeout)
	}

	if err := run(ctx, c, os.Stdout, args[0], args[1:]); err != nil {
		fatalf("%s: %v", args[0], err)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	flag.StringVar(&opts.url, "url", "", "sc-server url (overrides config)")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level: debug | info | warn | error")
	flag.StringVar(&opts.metrics, "metrics", "", "serve prometheus metrics on this address")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: scctl [flags] keynodes|types|content|search|watch args...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opts
}

// run executes one command, printing one line per requested item. Replies longer
// than the request are ignored.
func run(ctx context.Context, c *client.Client, out io.Writer, command string, args []string) error {
	switch command {
	case "keynodes":
		params := make([]sc.IdtfResolveParams, len(args))
		for i, idtf := range args {
			params[i] = sc.IdtfResolveParams{Idtf: idtf}
		}
		addrs, err := c.ResolveKeynodes(ctx, params...)
		if err != nil {
			return err
		}
		for i, idtf := range args {
			if i < len(addrs) {
				fmt.Fprintf(out, "%s\t%d\n", idtf, uint64(addrs[i]))
			}
		}
		return nil

	case "types":
		addrs, err := parseAddrs(args)
		if err != nil {
			return err
		}
		types, err := c.GetElementsTypes(ctx, addrs...)
		if err != nil {
			return err
		}
		for i, addr := range addrs {
			if i < len(types) {
				fmt.Fprintf(out, "%d\t%s\n", uint64(addr), types[i])
			}
		}
		return nil

	case "content":
		addrs, err := parseAddrs(args)
		if err != nil {
			return err
		}
		contents, err := c.GetLinkContent(ctx, addrs...)
		if err != nil {
			return err
		}
		for _, content := range contents {
			fmt.Fprintf(out, "%d\t%s\t%v\n", uint64(content.Addr), content.Type, content.Data)
		}
		return nil

	case "search":
		data := make([]any, len(args))
		for i, text := range args {
			data[i] = text
		}
		found, err := c.SearchLinksByContentsSubstrings(ctx, data...)
		if err != nil {
			return err
		}
		for i, text := range args {
			if i < len(found) {
				fmt.Fprintf(out, "%s\t%v\n", text, found[i])
			}
		}
		return nil

	case "watch":
		return watch(ctx, c, out, args)
	}
	return fmt.Errorf("unknown command (supported: keynodes, types, content, search, watch)")
}

// watch prints events for one element until interrupted.
func watch(ctx context.Context, c *client.Client, out io.Writer, args []string) error {
	if len(args) == 0 {
		return errors.New("watch needs an element address")
	}
	addrs, err := parseAddrs(args[:1])
	if err != nil {
		return err
	}
	eventType := sc.EventAfterGenerateOutgoingArc
	if len(args) > 1 {
		eventType = sc.EventType(args[1])
	}

	subs, err := c.CreateElementaryEventSubscriptions(ctx, sc.EventSubscriptionParams{
		Addr: addrs[0],
		Type: eventType,
		Handler: sc.EventHandlerFunc(func(ctx context.Context, subscribed, connector, other sc.Addr) {
			fmt.Fprintf(out, "%s\t%d\t%d\t%d\n", eventType, uint64(subscribed), uint64(connector), uint64(other))
		}),
	})
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return errors.New("sc-server refused the subscription")
	}
	log.Info().Uint64("subscription_id", subs[0].ID).Str("event", string(eventType)).Msg("watching")

	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.DestroyElementaryEventSubscriptions(closeCtx, subs...); err != nil {
		log.Warn().Err(err).Msg("destroy subscription")
	}
	return nil
}

func parseAddrs(args []string) ([]sc.Addr, error) {
	if len(args) == 0 {
		return nil, errors.New("no addresses given")
	}
	out := make([]sc.Addr, len(args))
	for i, arg := range args {
		v, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse address %q: %w", arg, err)
		}
		out[i] = sc.Addr(v)
	}
	return out, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	return srv
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "scctl: "+format+"\n", args...)
	os.Exit(1)
}
