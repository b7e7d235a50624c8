// Command idmap-query asks a running idmap server for mappings.
//
// Run it with a command for one-shot mode (idmap-query map Ce:15377), pipe
// commands on stdin, or start it without arguments for an interactive prompt.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/ariutta/BridgeDb/internal/config"
	"github.com/ariutta/BridgeDb/internal/logger"
	"github.com/ariutta/BridgeDb/internal/server/wsclient"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func main() {
	server := flag.String("server", "", "idmap server URL (default $IDMAP_BASE_URI)")
	timeout := flag.Duration("timeout", 30*time.Second, "per request timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
	baseURL := cfg.BaseURI
	if *server != "" {
		baseURL = *server
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Service: "idmap-query"})
	client := wsclient.New(baseURL, wsclient.WithLogger(log), wsclient.WithTimeout(*timeout))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// One-shot mode
	if flag.NArg() > 0 {
		if err := execute(ctx, client, strings.Join(flag.Args(), " "), os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
			os.Exit(1)
		}
		return
	}

	// Piped commands, one per line
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		failed := false
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := execute(ctx, client, line, os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	runREPL(ctx, client, baseURL, os.Stdin, os.Stdout)
}

func runREPL(ctx context.Context, client *wsclient.Client, baseURL string, in io.Reader, out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("IDMAP"))
	fmt.Fprintln(out, dimStyle.Render("Connected to "+baseURL))
	fmt.Fprintln(out, dimStyle.Render("Type 'help' for commands, 'exit' or Ctrl+C to quit"))
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "q":
			fmt.Fprintln(out, dimStyle.Render("Goodbye!"))
			return
		case "help":
			printHelp(out)
			continue
		}

		if err := execute(ctx, client, input, out); err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		}
		fmt.Fprintln(out)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Commands:"))
	for _, c := range commands {
		fmt.Fprintf(out, "  %-34s %s\n", c.usage, dimStyle.Render(c.help))
	}
	fmt.Fprintln(out, "  exit, quit, q                      Exit the program")
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Examples:"))
	fmt.Fprintln(out, "  full Ce:15377 Wd")
	fmt.Fprintln(out, "  uri http://purl.obolibrary.org/obo/CHEBI_15377")
	fmt.Fprintln(out, "  suggest glucose")
	fmt.Fprintln(out)
}
