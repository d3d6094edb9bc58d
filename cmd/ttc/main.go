// Command ttc is the ThingTalk toolchain driver: parse, type-check,
// optimize and compile a program, end to end.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/schema"
)

func main() {
	var interactive bool
	var help bool
	var verbose bool
	var programStr string
	var schemaPath string
	var noColor bool

	flag.BoolVar(&interactive, "i", false, "interactive mode: read programs from stdin, one per line")
	flag.BoolVar(&help, "h", false, "show help")
	flag.BoolVar(&verbose, "verbose", false, "verbose mode (log pipeline stage timing)")
	flag.StringVar(&programStr, "program", "", "run a single tokenized program and exit")
	flag.StringVar(&schemaPath, "schema", "", "optional BadgerDB path to persist resolved schemas across runs")
	flag.BoolVar(&noColor, "no-color", false, "disable colorized dump output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Parse, type-check, optimize and compile ThingTalk programs.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # Run the built-in demo\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i                                # Interactive mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -program 'now => notify'          # Run a single program\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -verbose -program 'monitor ( @com.weather.current ( ) ) => notify'\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	var logger *zap.Logger
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			logFatalf("building logger: %v", err)
		}
		logger = l
	}

	provider := newStaticProvider()
	if schemaPath != "" {
		store, err := schema.OpenBadgerClassStore(schemaPath)
		if err != nil {
			logFatalf("opening schema store: %v", err)
		}
		defer store.Close()
		for _, c := range provider.classes {
			if err := store.Put(c); err != nil {
				logFatalf("persisting class %s: %v", c.Kind, err)
			}
		}
	}

	resolver := schema.NewResolver(provider, schema.ResolverOptions{Logger: logger})
	for _, c := range provider.classes {
		resolver.InjectClass(c)
	}
	pipe := newPipeline(resolver, logger)

	ctx := context.Background()
	useColor := !noColor

	switch {
	case programStr != "":
		runOne(ctx, pipe, programStr, useColor)
	case interactive:
		runInteractive(ctx, pipe, useColor)
	default:
		runDemo(ctx, pipe, useColor)
	}
}

func logFatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runOne(ctx context.Context, pipe *pipeline, text string, useColor bool) {
	prog, err := parseTokens(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		os.Exit(1)
	}
	runProgram(ctx, pipe, prog, useColor)
}

func runInteractive(ctx context.Context, pipe *pipeline, useColor bool) {
	fmt.Println("ttc interactive mode. Enter a tokenized program, e.g.:")
	fmt.Println(`  now => notify`)
	fmt.Println(`  monitor ( @com.weather.current ( ) ) => notify`)
	fmt.Println("Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("ttc> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		prog, err := parseTokens(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			continue
		}
		runProgram(ctx, pipe, prog, useColor)
	}
}

// runDemo exercises the full pipeline over both the parser's built-in
// tables (a plain monitor/notify rule) and the hand-built ASTs
// demoPrograms supplies, including executor= lowering, which those
// tables can't themselves express.
func runDemo(ctx context.Context, pipe *pipeline, useColor bool) {
	fmt.Println("=== ThingTalk Toolchain Demo ===")

	fmt.Println("\n--- parsed: monitor(@com.weather.current()) => notify ---")
	runOne(ctx, pipe, "monitor ( @com.weather.current ( ) ) => notify", useColor)

	for name, prog := range demoPrograms() {
		fmt.Printf("\n--- %s ---\n", name)
		runProgram(ctx, pipe, prog, useColor)
	}
}

func runProgram(ctx context.Context, pipe *pipeline, prog *ast.Program, useColor bool) {
	rules, err := pipe.run(ctx, prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	dumpRules(os.Stdout, rules, useColor)
}
