package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"servicehub/models"
	"servicehub/services/api"
	"servicehub/services/paging"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	readTokenFunc  = term.ReadPassword // mockable
	isTerminalFunc = term.IsTerminal   // mockable

	errHelp = errors.New("help provided")
)

// listable maps console resource names onto remote collections.
var listable = map[string]api.Resource{
	"bookings":        api.Bookings,
	"users":           api.Users,
	"technicians":     api.Technicians,
	"services":        api.Services,
	"categories":      api.Categories,
	"offers":          api.Offers,
	"coupons":         api.Coupons,
	"parts":           api.Parts,
	"jobdesignations": api.Designations,
	"plans":           api.Plans,
	"notifications":   api.Notifications,
}

type commandLine struct {
	v      *viper.Viper
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  list RESOURCE [--role admin] [--page N] [--search TEXT] - page through a collection")
	fmt.Fprintln(cli.out, "    then: n (next), p (previous), g N (go to page), /TEXT (search), r (refresh), q (quit)")
	names := make([]string, 0, len(listable))
	for n := range listable {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(cli.out, "  resources: %s\n", strings.Join(names, ", "))
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	listCmd := pflag.NewFlagSet("list", pflag.ContinueOnError)
	listCmd.SetOutput(cli.out)
	listCmd.Usage = func() {
		cli.printUsage()
		fmt.Fprint(cli.out, listCmd.FlagUsages())
	}
	listCmd.String("role", string(models.RoleAdmin), "Role whose API is queried (admin, technician, user)")
	listCmd.Int("page", 1, "Page to open first")
	listCmd.String("search", "", "Initial search text")
	listCmd.String("api", "", "Remote API base URL (default $API_BASE_URL)")
	listCmd.String("token", "", "Session token (default $CONSOLE_TOKEN, prompted when empty)")

	switch args[1] {
	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return errHelp
			}
			return err
		}
		if listCmd.NArg() != 1 {
			listCmd.Usage()
			return errHelp
		}
		for _, name := range []string{"role", "page", "search", "api", "token"} {
			if err := cli.v.BindPFlag(name, listCmd.Lookup(name)); err != nil {
				return err
			}
		}
		return cli.list(ctx, listCmd.Arg(0))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) token() (string, error) {
	if tok := cli.v.GetString("token"); tok != "" {
		return tok, nil
	}
	if tok := cli.v.GetString("CONSOLE_TOKEN"); tok != "" {
		return tok, nil
	}
	if !isTerminalFunc(int(syscall.Stdin)) {
		return "", errors.New("no session token: pass --token or set CONSOLE_TOKEN")
	}
	fmt.Fprint(cli.out, "Session token:")
	b, err := readTokenFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (cli *commandLine) list(ctx context.Context, name string) error {
	resource, ok := listable[name]
	if !ok {
		cli.printUsage()
		return fmt.Errorf("unknown resource %q", name)
	}
	role, err := models.ParseRole(cli.v.GetString("role"))
	if err != nil {
		return err
	}
	tok, err := cli.token()
	if err != nil {
		return err
	}

	base := cli.v.GetString("api")
	if base == "" {
		base = cli.v.GetString("API_BASE_URL")
	}
	client := api.NewClient(base, role,
		api.WithLogger(cli.logger),
		api.WithPageSize(cli.v.GetInt("PAGE_SIZE")),
	)
	cookieName := cli.v.GetString("SESSION_COOKIE")
	ctx = api.WithCookie(ctx, cookieName+"="+tok)

	fetchFor := func(search string) paging.FetchFunc[json.RawMessage] {
		return func(ctx context.Context, page int) (models.Page[json.RawMessage], error) {
			return api.List[json.RawMessage](ctx, client, resource, api.ListQuery{Page: page, Search: search})
		}
	}

	var printMu sync.Mutex
	printState := func(s paging.State[json.RawMessage]) {
		if s.Loading {
			return
		}
		printMu.Lock()
		defer printMu.Unlock()
		render(cli.out, name, s)
	}

	f := paging.New(ctx, fetchFor(cli.v.GetString("search")),
		paging.StartAt[json.RawMessage](cli.v.GetInt("page")),
		paging.WithLogger[json.RawMessage](cli.logger),
		paging.OnChange(printState),
	)
	defer f.Close()

	debounce := paging.NewDebouncer(cli.v.GetDuration("SEARCH_DEBOUNCE"))
	defer debounce.Stop()

	scanner := bufio.NewScanner(cli.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "q":
			return nil
		case line == "n":
			f.Next()
		case line == "p":
			f.Prev()
		case line == "r":
			f.Refresh()
		case strings.HasPrefix(line, "g "):
			n, err := strconv.Atoi(strings.TrimSpace(line[2:]))
			if err != nil || n < 1 {
				fmt.Fprintln(cli.out, "page must be a positive number")
				continue
			}
			f.SetPage(n)
		case strings.HasPrefix(line, "/"):
			search := strings.TrimSpace(line[1:])
			debounce.Trigger(func() { f.Reset(fetchFor(search)) })
		default:
			fmt.Fprintf(cli.out, "unknown command %q\n", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// input closed: run any pending search and let the last load settle
	debounce.Flush()
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = f.Wait(waitCtx)
	return err
}

func render(w io.Writer, name string, s paging.State[json.RawMessage]) {
	if s.Error != "" {
		fmt.Fprintf(w, "%s: %s\n", name, s.Error)
	}
	fmt.Fprintf(w, "%s page %d/%d\n", name, s.Page, max(s.TotalPages, 1))
	if len(s.Data) == 0 {
		fmt.Fprintln(w, "  (no results)")
		return
	}
	for _, raw := range s.Data {
		fmt.Fprintf(w, "  %s\n", summarize(raw))
	}
}

// summarize picks an id and the first descriptive field of an item.
func summarize(raw json.RawMessage) string {
	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return string(raw)
	}
	id, _ := item["_id"].(string)
	for _, key := range []string{"name", "title", "code", "status", "message", "email"} {
		if v, ok := item[key]; ok && v != nil {
			return fmt.Sprintf("%s  %v", id, v)
		}
	}
	return id
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.SetDefault("API_BASE_URL", "http://localhost:5000")
	v.SetDefault("SESSION_COOKIE", "token")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	_ = v.ReadInConfig()
	return v
}
