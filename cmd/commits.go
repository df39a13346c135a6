package cmd

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Johannes-Berggren/CommitQuery/internal/console"
	"github.com/Johannes-Berggren/CommitQuery/internal/git"
	"github.com/Johannes-Berggren/CommitQuery/internal/models"
	"github.com/Johannes-Berggren/CommitQuery/internal/ui"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultTermWidth = 120

var (
	flagProject  string
	flagBranch   string
	flagSince    string
	flagUntil    string
	flagAuthors  string
	flagPage     int
)

var errInvalidPage = errors.New("page must be at least 1")

var commitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "Print one page of commits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if _, err := e.store.Guard(); err != nil {
			return err
		}

		q, err := queryFromFlags(time.Now(), detectCheckout(cmd.Context()), e.cfg.PageSize)
		if err != nil {
			return err
		}

		page, err := e.client.ListCommits(cmd.Context(), q)
		if err != nil {
			return e.rejected(err)
		}
		if len(page.Items) == 0 {
			console.Warning("没有找到提交记录")
			return nil
		}

		console.Plain(renderTable(page.Items, termWidth()))
		console.Info("显示 %s  %s", page.RangeText(), page.PageText())
		return nil
	},
}

func init() {
	addFilterFlags(commitsCmd)
	commitsCmd.Flags().IntVar(&flagPage, "page", 1, "page number")
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagProject, "project", "", "project ID or escaped path (default: origin remote of the checkout)")
	f.StringVar(&flagBranch, "branch", "", "branch name (default: current branch)")
	f.StringVar(&flagSince, "since", "", "start date YYYY-MM-DD (default today)")
	f.StringVar(&flagUntil, "until", "", "end date YYYY-MM-DD (default last day of this month)")
	f.StringVar(&flagAuthors, "authors", "", "comma separated author e-mails")
}

// exportQueryFromFlags reads the filter flags. Empty dates take the same
// defaults the query form starts with; project and branch fall back to local.
func exportQueryFromFlags(now time.Time, local git.Checkout) models.ExportQuery {
	start, end := models.DefaultDateRange(now)
	q := models.ExportQuery{
		ProjectID:    strings.TrimSpace(flagProject),
		Branch:       strings.TrimSpace(flagBranch),
		StartDate:    strings.TrimSpace(flagSince),
		EndDate:      strings.TrimSpace(flagUntil),
		AuthorEmails: models.NormalizeEmails(flagAuthors),
	}
	if q.ProjectID == "" {
		q.ProjectID = local.Project
	}
	if q.Branch == "" {
		q.Branch = local.Branch
	}
	if q.StartDate == "" {
		q.StartDate = start
	}
	if q.EndDate == "" {
		q.EndDate = end
	}
	return q
}

func queryFromFlags(now time.Time, local git.Checkout, pageSize int) (models.Query, error) {
	e := exportQueryFromFlags(now, local)
	if err := e.Validate(); err != nil {
		return models.Query{}, err
	}

	q := e.WithPage(flagPage, pageSize)
	if err := q.ValidatePageSize(); err != nil {
		return models.Query{}, err
	}
	if q.Page < 1 {
		return models.Query{}, errInvalidPage
	}
	return q, nil
}

var tableHeader = []string{"提交ID", "作者", "邮箱", "时间", "标题"}

// renderTable lays commits out in fixed columns; the title takes what is left of width.
func renderTable(commits []models.Commit, width int) string {
	widths := []int{10, 14, 26, 19, 0}
	used := 2 * (len(widths) - 1)
	for _, w := range widths {
		used += w
	}
	widths[len(widths)-1] = max(width-used, 20)

	rows := [][]string{tableHeader}
	for _, c := range commits {
		rows = append(rows, []string{
			ui.SingleLine(c.ShortID),
			ui.SingleLine(c.AuthorName),
			ui.SingleLine(c.AuthorEmail),
			c.DisplayTime(),
			ui.SingleLine(c.Title),
		})
	}

	lines := lo.Map(rows, func(row []string, _ int) string {
		cells := make([]string, len(row))
		for i, cell := range row {
			cell = ui.Truncate(cell, widths[i])
			if i < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[i])
			}
			cells[i] = cell
		}
		return strings.TrimRight(strings.Join(cells, "  "), " ")
	})
	return strings.Join(lines, "\n")
}

func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultTermWidth
}
