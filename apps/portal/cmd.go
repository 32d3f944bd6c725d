package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/masomo-portal/apps/portal/di"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/services/detector"
	"github.com/trezcool/masomo-portal/services/factory"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	logger   core.Logger
	storage  core.Storage
	messages *core.Messages
	detector *detector.Detector
	factory  *factory.Factory
	session  *session.Store
	settings *settings.Store
	out      io.Writer

	modeKey string
}

func newCommandLine(p di.Params, out io.Writer) *commandLine {
	return &commandLine{
		conf:     p.Conf,
		logger:   p.Logger,
		storage:  p.Storage,
		messages: p.Messages,
		detector: p.Detector,
		factory:  p.Factory,
		session:  p.Session,
		settings: p.Settings,
		out:      out,
		modeKey:  p.Conf.Storage.Namespace + ".mode",
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME      - sign in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                        - sign out")
	fmt.Fprintln(cli.out, "  whoami                        - show the signed in user")
	fmt.Fprintln(cli.out, "  health                        - check the backend availability")
	fmt.Fprintln(cli.out, "  mode [mock|real]              - show or switch the service mode")
	fmt.Fprintln(cli.out, "  news [-search S -category C -page N -limit N]")
	fmt.Fprintln(cli.out, "  notices [-unread -page N -limit N]")
	fmt.Fprintln(cli.out, "  events [-month YYYY-MM -limit N]")
	fmt.Fprintln(cli.out, "  users [-role R -search S -page N -limit N]  - admin only")
	fmt.Fprintln(cli.out, "  settings [-lang en|fr -theme light|dark -course C]")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginUname := loginCmd.String("username", "", "The username or email. The password will be prompted next.")

	newsCmd := flag.NewFlagSet("news", flag.ContinueOnError)
	newsSearch := newsCmd.String("search", "", "Search in titles and contents.")
	newsCategory := newsCmd.String("category", "", "Only this category.")
	newsPage := pageFlags(newsCmd)

	noticesCmd := flag.NewFlagSet("notices", flag.ContinueOnError)
	noticesUnread := noticesCmd.Bool("unread", false, "Only the notices not read yet.")
	noticesPage := pageFlags(noticesCmd)

	eventsCmd := flag.NewFlagSet("events", flag.ContinueOnError)
	eventsMonth := eventsCmd.String("month", "", "Events of the month YYYY-MM instead of the upcoming ones.")
	eventsLimit := eventsCmd.Int("limit", 5, "Number of upcoming events.")

	usersCmd := flag.NewFlagSet("users", flag.ContinueOnError)
	usersRole := usersCmd.String("role", "", "Only this role.")
	usersSearch := usersCmd.String("search", "", "Search in names, usernames and emails.")
	usersPage := pageFlags(usersCmd)

	settingsCmd := flag.NewFlagSet("settings", flag.ContinueOnError)
	settingsLang := settingsCmd.String("lang", "", "Language: en or fr.")
	settingsTheme := settingsCmd.String("theme", "", "Theme: light or dark.")
	settingsCourse := settingsCmd.String("course", "", "Active course.")

	for _, fs := range []*flag.FlagSet{loginCmd, newsCmd, noticesCmd, eventsCmd, usersCmd, settingsCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		cli.start(ctx)
		return cli.login(ctx, *loginUname, string(pwd))
	case "logout":
		cli.start(ctx)
		return cli.logout(ctx)
	case "whoami":
		cli.start(ctx)
		return cli.whoami(ctx)
	case "health":
		return cli.health(ctx)
	case "mode":
		cli.start(ctx)
		var target string
		if len(args) > 2 {
			target = strings.ToLower(args[2])
		}
		return cli.mode(ctx, target)
	case "news":
		if err := newsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		cli.start(ctx)
		return cli.news(ctx, *newsSearch, *newsCategory, newsPage.request())
	case "notices":
		if err := noticesCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		cli.start(ctx)
		return cli.notices(ctx, *noticesUnread, noticesPage.request())
	case "events":
		if err := eventsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		cli.start(ctx)
		return cli.events(ctx, *eventsMonth, *eventsLimit)
	case "users":
		if err := usersCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		cli.start(ctx)
		return cli.users(ctx, *usersRole, *usersSearch, usersPage.request())
	case "settings":
		if err := settingsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.updateSettings(*settingsLang, *settingsTheme, *settingsCourse)
	default:
		cli.printUsage()
		return errHelp
	}
}

type pageOpts struct {
	page, limit *int
}

func pageFlags(fs *flag.FlagSet) pageOpts {
	return pageOpts{
		page:  fs.Int("page", 1, "Page number, starting at 1."),
		limit: fs.Int("limit", 0, "Page size."),
	}
}

func (o pageOpts) request() core.PageRequest {
	return core.PageRequest{Page: *o.page, Limit: *o.limit}
}

// start selects the service mode, honoring a previous explicit switch to mock, and restores the session.
func (cli *commandLine) start(ctx context.Context) {
	if mode, ok, _ := cli.storage.Get(cli.modeKey); ok && mode == string(factory.ModeMock) {
		cli.factory.SwitchToMock()
	} else {
		cli.factory.Initialize(ctx)
	}
	cli.session.Restore()
}

func (cli *commandLine) close() {
	cli.session.Close()
	cli.detector.Stop()
}

// describe renders err for the user in the configured language.
func (cli *commandLine) describe(err error) string {
	msg := cli.messages.ForModeError(cli.settings.Load().Language, err, cli.factory.IsMockMode())
	if msg == "" {
		return err.Error()
	}
	return msg
}

func (cli *commandLine) banner() {
	if cli.factory.IsMockMode() {
		fmt.Fprintf(cli.out, "[%s]\n", cli.messages.MockBanner(cli.settings.Load().Language))
	}
}
