package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/services/factory"
)

var (
	errForbidden          = &core.HTTPError{Status: 403, Code: core.CodeForbidden, Message: "permission denied"}
	errBackendUnavailable = errors.New("backend unavailable")
	errUnknownMode        = errors.New("mode must be mock or real")
)

const dateFmt = "2006-01-02"

func (cli *commandLine) login(ctx context.Context, username, password string) error {
	cli.banner()
	usr, err := cli.session.Login(ctx, user.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Welcome %s (%s)\n", usr.Name, usr.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if !cli.session.IsAuthenticated() {
		fmt.Fprintln(cli.out, "not signed in")
		return nil
	}
	cli.session.Logout(ctx)
	fmt.Fprintln(cli.out, "signed out")
	return nil
}

// whoami checks the session against the server; the cached user is shown when it cannot be reached.
func (cli *commandLine) whoami(ctx context.Context) error {
	if err := cli.session.ValidateSession(ctx); err != nil && !(core.IsNetwork(err) || core.IsTimeout(err)) {
		return err
	}
	usr, ok := cli.session.CurrentUser()
	if !ok {
		return core.ErrUnauthenticated
	}
	sess, _ := cli.session.Session()
	cli.banner()
	fmt.Fprintf(cli.out, "%s <%s> %s\n", usr.Name, usr.Username, usr.Role)
	fmt.Fprintf(cli.out, "session expires at %s\n", sess.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func (cli *commandLine) health(ctx context.Context) error {
	available := cli.detector.CheckOnce(ctx)
	status, _ := cli.detector.Status()
	if available {
		fmt.Fprintf(cli.out, "%s: available (%s)\n", cli.conf.API.BaseURL, status.ResponseTime.Round(time.Millisecond))
		return nil
	}
	fmt.Fprintf(cli.out, "%s: unavailable (%s)\n", cli.conf.API.BaseURL, status.Error)
	return nil
}

// mode shows or switches the service mode. An explicit switch is remembered across runs.
func (cli *commandLine) mode(ctx context.Context, target string) error {
	switch target {
	case "":
	case "mock":
		cli.factory.SwitchToMock()
		if err := cli.storage.Set(cli.modeKey, string(factory.ModeMock)); err != nil {
			return err
		}
	case "real":
		if !cli.factory.SwitchToReal(ctx) {
			return errBackendUnavailable
		}
		if err := cli.storage.Remove(cli.modeKey); err != nil {
			return err
		}
	default:
		return errUnknownMode
	}
	fmt.Fprintf(cli.out, "mode: %s\n", cli.factory.Mode())
	cli.banner()
	return nil
}

func (cli *commandLine) requireSession() (user.User, error) {
	usr, ok := cli.session.CurrentUser()
	if !ok {
		return user.User{}, core.ErrUnauthenticated
	}
	return usr, nil
}

func (cli *commandLine) news(ctx context.Context, search, category string, pr core.PageRequest) error {
	if _, err := cli.requireSession(); err != nil {
		return err
	}
	filter := news.QueryFilter{Search: search, Category: category, Published: boolPtr(true)}
	filter.Clean()
	page, err := cli.factory.Services().News().GetNews(ctx, filter, pr)
	if err != nil {
		return err
	}

	cli.banner()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCATEGORY\tTITLE\tAUTHOR")
	for _, n := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.PublishedAt.Local().Format(dateFmt), n.Category, n.Title, n.Author.Name)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	cli.printPage(page.Pagination())
	return nil
}

func (cli *commandLine) notices(ctx context.Context, unread bool, pr core.PageRequest) error {
	usr, err := cli.requireSession()
	if err != nil {
		return err
	}
	svc := cli.factory.Services().Notices()
	filter := notice.QueryFilter{RecipientID: usr.ID}
	if unread {
		filter.UnreadFor = usr.ID
	}
	pr.SortBy, pr.SortOrder = "createdAt", core.SortDesc
	page, err := svc.GetNotices(ctx, filter, pr)
	if err != nil {
		return err
	}
	count, err := svc.GetUnreadCount(ctx, usr.ID)
	if err != nil {
		return err
	}

	cli.banner()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, " \tDATE\tPRIORITY\tTITLE\tAUTHOR")
	for _, n := range page.Data {
		mark := "*"
		if n.IsReadBy(usr.ID) {
			mark = " "
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, n.CreatedAt.Local().Format(dateFmt), n.Priority, n.Title, n.Author.Name)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	cli.printPage(page.Pagination())
	fmt.Fprintf(cli.out, "%d unread\n", count)
	return nil
}

func (cli *commandLine) events(ctx context.Context, month string, limit int) error {
	if _, err := cli.requireSession(); err != nil {
		return err
	}
	svc := cli.factory.Services().Calendar()

	var (
		items []calendar.Event
		err   error
	)
	if month != "" {
		m, pErr := time.Parse("2006-01", month)
		if pErr != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "expected YYYY-MM"})
		}
		items, err = svc.GetEventsByMonth(ctx, m.Year(), m.Month())
	} else {
		items, err = svc.GetUpcomingEvents(ctx, limit)
	}
	if err != nil {
		return err
	}

	cli.banner()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tTYPE\tTITLE\tLOCATION")
	for _, e := range items {
		layout := "2006-01-02 15:04"
		if e.AllDay {
			layout = dateFmt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.StartDate.Local().Format(layout), e.EndDate.Local().Format(layout), e.Type, e.Title, e.Location)
	}
	return w.Flush()
}

func (cli *commandLine) users(ctx context.Context, role, search string, pr core.PageRequest) error {
	if _, err := cli.requireSession(); err != nil {
		return err
	}
	if !cli.session.HasRole(user.RoleAdmin) {
		return errForbidden
	}
	filter := user.QueryFilter{Role: role, Search: search}
	filter.Clean()
	page, err := cli.factory.Services().Users().GetUsers(ctx, filter, pr)
	if err != nil {
		return err
	}

	cli.banner()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.Username, u.Name, u.Email, u.Role, u.IsActive)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	cli.printPage(page.Pagination())
	return nil
}

func (cli *commandLine) updateSettings(lang, theme, course string) error {
	st := cli.settings.Load()
	if lang != "" || theme != "" || course != "" {
		var err error
		st, err = cli.settings.Update(func(s *settings.Settings) {
			if lang != "" {
				s.Language = lang
			}
			if theme != "" {
				s.Theme = theme
			}
			if course != "" {
				s.ActiveCourse = course
			}
		})
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(cli.out, "language: %s\ntheme: %s\ncourse: %s\n", st.Language, st.Theme, st.ActiveCourse)
	return nil
}

func (cli *commandLine) printPage(p core.Pagination) {
	fmt.Fprintf(cli.out, "page %d/%d, %d total\n", p.Page, p.TotalPages, p.Total)
}

func boolPtr(b bool) *bool { return &b }
