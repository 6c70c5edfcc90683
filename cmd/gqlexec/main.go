package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/hanpama/gqlexec/internal/engine"
	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/executor"
	"github.com/hanpama/gqlexec/internal/grpcapi"
	"github.com/hanpama/gqlexec/internal/logsink"
	"github.com/hanpama/gqlexec/internal/otel"
	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/server"
	"github.com/hanpama/gqlexec/internal/starwars"
)

const rootUsage = `gqlexec: GraphQL execution engine with the Star Wars example schema

USAGE:
  gqlexec <command> [flags]

COMMANDS:
  serve            Run the GraphQL HTTP and gRPC endpoints
  exec             Execute one query and print the result
  validate         Parse and validate a query without executing it
  print-schema     Print the example schema as SDL
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -server.addr <addr>              HTTP listen address (default: :8080)
  -server.pretty                   Pretty-print JSON responses
  -server.timeout <duration>       Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>         Request body limit, 0 for none (default: 1048576)
  -server.cors-origin <origin>     Allow a CORS origin. Repeatable
  -server.metadata-header <name>   Forward HTTP header to gRPC metadata. Repeatable
  -grpc.addr <addr>                gRPC listen address, empty to disable (default: :9090)
  -exec.strategy <name>            parallel or serial (default: parallel)
  -exec.max-concurrency N          Cap sibling fan-out, 0 for none (default: 0)
  -otel.endpoint <addr>            OTLP collector endpoint
  -otel.service <name>             OpenTelemetry service name (default: gqlexec)
  -log.level <level>               debug, info, warn or error (default: info)
  -log.format <format>             text or json (default: text)
`

const execUsage = `exec FLAGS:
  -query <text>                    Query text (default: read -file, then stdin)
  -file <path>                     Read the query from a file
  -vars <json>                     Variables as a JSON object
  -operation <name>                Operation to run
  -exec.strategy <name>            parallel or serial (default: parallel)
  -exec.max-concurrency N          Cap sibling fan-out, 0 for none (default: 0)
  -log.level <level>               debug, info, warn or error (default: warn)
  -log.format <format>             text or json (default: text)
`

const validateUsage = `validate FLAGS:
  -query <text>                    Query text (default: read -file, then stdin)
  -file <path>                     Read the query from a file
  (Exits non-zero when the query has errors)
`

const printSchemaUsage = `print-schema FLAGS:
  -out <file>                      Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	cmd, cmdArgs := args[0], args[1:]
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	switch cmd {
	case "serve":
		return c.serve(cmdArgs)
	case "exec":
		return c.exec(cmdArgs)
	case "validate":
		return c.validate(cmdArgs)
	case "print-schema":
		return c.printSchema(cmdArgs)
	case "help":
		return c.help(cmdArgs)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type cli struct {
	stdin          io.Reader
	stdout, stderr io.Writer
}

func (c *cli) help(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(c.stdout, serveUsage)
	case "exec":
		fmt.Fprint(c.stdout, execUsage)
	case "validate":
		fmt.Fprint(c.stdout, validateUsage)
	case "print-schema":
		fmt.Fprint(c.stdout, printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// execFlags are shared by the commands that build an engine.
type execFlags struct {
	strategy       string
	maxConcurrency int
	logLevel       string
	logFormat      string
}

func (f *execFlags) register(fs *flag.FlagSet, defaultLevel string) {
	fs.StringVar(&f.strategy, "exec.strategy", "parallel", "Execution strategy")
	fs.IntVar(&f.maxConcurrency, "exec.max-concurrency", 0, "Sibling fan-out cap")
	fs.StringVar(&f.logLevel, "log.level", defaultLevel, "Log level")
	fs.StringVar(&f.logFormat, "log.format", "text", "Log format")
}

// newEngine builds the Star Wars engine with a logger attached to its bus.
func (f *execFlags) newEngine(w io.Writer) (*engine.Engine, *slog.Logger, error) {
	strategy, err := executor.ParseStrategy(f.strategy)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logsink.New(w, logsink.Config{Level: f.logLevel, Format: f.logFormat})
	if err != nil {
		return nil, nil, err
	}
	sch, err := starwars.Schema(starwars.NewStore())
	if err != nil {
		return nil, nil, fmt.Errorf("build schema: %w", err)
	}
	bus := eventbus.New()
	logsink.Attach(bus, logger)
	opts := []engine.Option{engine.WithStrategy(strategy), engine.WithBus(bus)}
	if f.maxConcurrency > 0 {
		opts = append(opts, engine.WithMaxConcurrency(f.maxConcurrency))
	}
	return engine.New(sch, opts...), logger, nil
}

func (c *cli) serve(args []string) error {
	addr := ":8080"
	grpcAddr := ":9090"
	pretty := false
	timeout := 10 * time.Second
	maxBody := int64(1 << 20)
	otelEndpoint := ""
	otelService := "gqlexec"
	var corsOrigins, metadataHeaders stringListFlag
	var ef execFlags

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBody, "server.max-body", maxBody, "Request body limit")
	fs.Var(&corsOrigins, "server.cors-origin", "Allowed CORS origin")
	fs.Var(&metadataHeaders, "server.metadata-header", "Forward HTTP header to gRPC metadata")
	fs.StringVar(&grpcAddr, "grpc.addr", grpcAddr, "gRPC listen address")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	ef.register(fs, "info")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(c.stderr, serveUsage)
		return err
	}

	eng, logger, err := ef.newEngine(c.stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, eng.Bus(), otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var sopts []server.Option
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if maxBody > 0 {
		sopts = append(sopts, server.WithMaxBodyBytes(maxBody))
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}
	if len(metadataHeaders) > 0 {
		sopts = append(sopts, server.WithMetadataHeaders(metadataHeaders...))
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", server.New(eng, sopts...))
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 2)
	go func() {
		logger.Info("graphql http listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var grpcSrv *grpc.Server
	if grpcAddr != "" {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(grpcapi.UnaryInterceptor(eng.Bus())))
		grpcapi.Register(grpcSrv, eng)
		go func() {
			logger.Info("graphql grpc listening", "addr", grpcAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}
	logger.Info("shutting down")
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(sctx)
}

// readQuery returns query, else the contents of file, else stdin.
func (c *cli) readQuery(query, file string) (string, error) {
	if query != "" {
		return query, nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(c.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return "", fmt.Errorf("no query given")
	}
	return string(b), nil
}

func (c *cli) exec(args []string) error {
	var query, file, vars, operation string
	var ef execFlags
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&query, "query", "", "Query text")
	fs.StringVar(&file, "file", "", "Query file")
	fs.StringVar(&vars, "vars", "", "Variables JSON")
	fs.StringVar(&operation, "operation", "", "Operation name")
	ef.register(fs, "warn")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(c.stderr, execUsage)
		return err
	}
	q, err := c.readQuery(query, file)
	if err != nil {
		return err
	}
	var variables map[string]any
	if vars != "" {
		if err := json.Unmarshal([]byte(vars), &variables); err != nil {
			return fmt.Errorf("invalid -vars JSON: %w", err)
		}
	}
	eng, _, err := ef.newEngine(c.stderr)
	if err != nil {
		return err
	}
	res := eng.Execute(context.Background(), engine.Request{
		Query:         q,
		OperationName: operation,
		Variables:     variables,
	})
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (c *cli) validate(args []string) error {
	var query, file string
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&query, "query", "", "Query text")
	fs.StringVar(&file, "file", "", "Query file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(c.stderr, validateUsage)
		return err
	}
	q, err := c.readQuery(query, file)
	if err != nil {
		return err
	}
	sch, err := starwars.Schema(starwars.NewStore())
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	_, errs := engine.New(sch).Prepare(q)
	if len(errs) == 0 {
		fmt.Fprintln(c.stdout, "ok")
		return nil
	}
	for _, e := range errs {
		fmt.Fprintln(c.stdout, e.Error())
	}
	return fmt.Errorf("%d validation error(s)", len(errs))
}

func (c *cli) printSchema(args []string) error {
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(c.stderr, printSchemaUsage)
		return err
	}
	sch, err := starwars.Schema(starwars.NewStore())
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Fprint(c.stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
