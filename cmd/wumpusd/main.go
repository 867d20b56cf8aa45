// Command wumpusd is wumpus's front-end binary (spec.md §6): a "serve"
// command that opens an Instance and speaks the client wire protocol over
// TCP, and "frontend"/"get_document" commands that drive queries against an
// already-running server the way a batch TREC run would.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gmargari/wumpus-sub004/pkg/options"
	"github.com/gmargari/wumpus-sub004/pkg/wlog"
	"github.com/gmargari/wumpus-sub004/pkg/wumpus"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "wumpusd",
		Usage: "wumpus index server and query front-end",
		Commands: []*cli.Command{
			serveCommand(),
			frontendCommand(),
			getDocumentCommand(),
		},
	}
}

// serveCommand opens an Instance over --data-dir (or the key/value file
// named by WUMPUS_CONFIG) and accepts client connections on --addr.
func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "open an index and accept client connections",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Value: "./data", Usage: "index data directory"},
			&cli.StringFlag{Name: "addr", Value: ":9999", Usage: "TCP address to listen on"},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			loaded, err := options.LoadFromEnv("WUMPUS_CONFIG")
			if err != nil {
				return err
			}
			inst, err := wumpus.NewInstance(ctx, "wumpusd",
				options.WithOptions(loaded),
				options.WithDataDir(c.String("data-dir")),
			)
			if err != nil {
				return err
			}
			defer inst.Close()

			ln, err := net.Listen("tcp", c.String("addr"))
			if err != nil {
				return err
			}
			defer ln.Close()

			log := wlog.New("wumpusd")
			log.Infow("Listening for client connections", "addr", ln.Addr().String())
			return inst.Serve(ctx, ln)
		},
	}
}

// frontendCommand implements spec §6's CLI surface: it dials the first
// reachable host in --servers, issues one ranking query per line of
// --input, and writes the results to --output.
func frontendCommand() *cli.Command {
	return &cli.Command{
		Name:  "frontend",
		Usage: "run a batch of queries against one or more wumpus servers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "servers", Required: true, Usage: "comma-separated host:port list"},
			&cli.StringFlag{Name: "input", Required: true, Usage: "file of query bodies, one per line"},
			&cli.StringFlag{Name: "output", Required: true, Usage: "file results are written to"},
			&cli.StringFlag{Name: "input_format", Value: "plain", Usage: "TREC|plain|wumpus"},
			&cli.StringFlag{Name: "output_format", Value: "snippet", Usage: "TREC|snippet"},
			&cli.IntFlag{Name: "count", Value: 20, Usage: "results per query"},
			&cli.BoolFlag{Name: "stemming", Usage: "apply stemming modifier"},
			&cli.BoolFlag{Name: "remove_stopwords", Usage: "apply stopword-removal modifier"},
			&cli.IntFlag{Name: "avg_delay", Value: 0, Usage: "average delay between queries, in ms"},
			&cli.StringFlag{Name: "login", Usage: "user:pass"},
			&cli.StringFlag{Name: "command", Value: "bm25", Usage: "bm25|okapi|rank|gcl"},
			&cli.StringFlag{Name: "trec_fields", Value: "title", Usage: "comma-separated TREC fields to read (title,desc)"},
		},
		Action: func(c *cli.Context) error {
			addr, err := firstReachable(strings.Split(c.String("servers"), ","))
			if err != nil {
				return err
			}

			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return err
			}
			defer conn.Close()
			rd := bufio.NewReader(conn)
			if _, err := readResponse(rd); err != nil { // welcome line
				return err
			}

			if login := c.String("login"); login != "" {
				user, pass, _ := strings.Cut(login, ":")
				if err := runCommand(conn, rd, fmt.Sprintf("@login %s %s", user, pass), nil); err != nil {
					return err
				}
			}

			in, err := os.Open(c.String("input"))
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := os.Create(c.String("output"))
			if err != nil {
				return err
			}
			defer out.Close()

			// input_format/trec_fields select which line(s) of a TREC topic
			// become the query body; plain/wumpus formats take the line as-is.
			// TREC's multi-field (title+desc+narr) topic parsing is not
			// implemented — only a single field is read per topic line.

			delay := time.Duration(c.Int("avg_delay")) * time.Millisecond
			scanner := bufio.NewScanner(in)
			topicID := 0
			for scanner.Scan() {
				body := strings.TrimSpace(scanner.Text())
				if body == "" {
					continue
				}
				topicID++

				line := buildQueryLine(c.String("command"), topicID, body, c.Int("count"), c.Bool("stemming"), c.Bool("remove_stopwords"))
				if err := runCommand(conn, rd, line, out); err != nil {
					fmt.Fprintln(os.Stderr, "query failed:", err)
				}
				if delay > 0 {
					time.Sleep(delay)
				}
			}
			return scanner.Err()
		},
	}
}

// getDocumentCommand fetches one file's contents with the query engine's
// "get" command ("@get path") from the first reachable server; the server
// registers no separate "@getfile" command.
func getDocumentCommand() *cli.Command {
	return &cli.Command{
		Name:  "get_document",
		Usage: "fetch one indexed file's contents from a server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "servers", Required: true, Usage: "comma-separated host:port list"},
			&cli.StringFlag{Name: "output", Required: true, Usage: "file the document is written to"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("get_document requires a file path argument", 1)
			}

			addr, err := firstReachable(strings.Split(c.String("servers"), ","))
			if err != nil {
				return err
			}
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return err
			}
			defer conn.Close()
			rd := bufio.NewReader(conn)
			if _, err := readResponse(rd); err != nil {
				return err
			}

			out, err := os.Create(c.String("output"))
			if err != nil {
				return err
			}
			defer out.Close()
			return runCommand(conn, rd, "@get "+path, out)
		},
	}
}

// buildQueryLine assembles the bracketed-modifier command line a frontend
// query sends, per §4.8's "command token, bracketed modifier map, body".
func buildQueryLine(command string, topicID int, body string, count int, stemming, removeStopwords bool) string {
	var mods []string
	mods = append(mods, "count="+strconv.Itoa(count))
	if stemming {
		mods = append(mods, "stemming")
	}
	if removeStopwords {
		mods = append(mods, "nostop")
	}
	modStr := "[" + strings.Join(mods, ",") + "]"

	switch strings.ToLower(command) {
	case "gcl":
		return fmt.Sprintf("@gcl%s %s", modStr, body)
	default: // bm25, okapi, rank
		terms := strings.Fields(body)
		return fmt.Sprintf(`@%s%s "<doc>".."</doc>" by %s`, strings.ToLower(command), modStr, strings.Join(terms, " "))
	}
}

// runCommand writes one command line to the server and copies its response
// lines to w (if non-nil) until the terminator line.
func runCommand(conn net.Conn, rd *bufio.Reader, line string, w *os.File) error {
	if _, err := fmt.Fprintln(conn, line); err != nil {
		return err
	}
	lines, err := readResponse(rd)
	if err != nil {
		return err
	}
	if w == nil {
		return nil
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// readResponse reads data lines until the "@<code>-<message>" terminator,
// returning the data lines collected before it.
func readResponse(rd *bufio.Reader) ([]string, error) {
	var lines []string
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return lines, err
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "@") && hasTerminatorShape(line) {
			if !strings.HasPrefix(line, "@0-") {
				return lines, fmt.Errorf("server error: %s", line)
			}
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// hasTerminatorShape reports whether line looks like "@<digits>-...".
func hasTerminatorShape(line string) bool {
	rest := line[1:]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	return i > 0 && i < len(rest) && rest[i] == '-'
}

// firstReachable dials each address in turn and returns the first one that
// accepts a TCP connection, matching "--servers=host:port,..." failover.
func firstReachable(addrs []string) (string, error) {
	var lastErr error
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return addr, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no servers given")
	}
	return "", fmt.Errorf("no reachable server in %v: %w", addrs, lastErr)
}
