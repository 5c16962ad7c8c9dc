package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/agnosto/dm-archiver/auth"
	"github.com/agnosto/dm-archiver/config"
	"github.com/agnosto/dm-archiver/core"
	"github.com/agnosto/dm-archiver/db"
	dbservice "github.com/agnosto/dm-archiver/db/service"
	"github.com/agnosto/dm-archiver/headers"
	"github.com/agnosto/dm-archiver/posts"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type DiagnosisFlags struct {
	Level      int
	PostID     string
	OutputFile string
}

type result int

const (
	resultInfo result = iota
	resultPass
	resultFail
	resultSkip
	resultWarn
)

var resultLabels = map[result]string{
	resultInfo: "INFO",
	resultPass: "PASS",
	resultFail: "FAIL",
	resultSkip: "SKIP",
	resultWarn: "WARN",
}

var resultColors = map[result]func(format string, a ...interface{}) string{
	resultInfo: color.CyanString,
	resultPass: color.GreenString,
	resultFail: color.RedString,
	resultSkip: color.YellowString,
	resultWarn: color.YellowString,
}

type DiagnosisSuite struct {
	flags  DiagnosisFlags
	cfg    *config.Config
	cfgErr error
	out    io.Writer
	report *strings.Builder
	client *posts.Client
	failed bool
}

func NewDiagnosisSuite(flags DiagnosisFlags, cfg *config.Config, cfgErr error, out io.Writer) *DiagnosisSuite {
	return &DiagnosisSuite{
		flags:  flags,
		cfg:    cfg,
		cfgErr: cfgErr,
		out:    out,
		report: &strings.Builder{},
	}
}

// Run executes every check and saves the report. It returns false when a check failed.
func (ds *DiagnosisSuite) Run(ctx context.Context) bool {
	ds.log("Starting diagnosis suite...")
	ds.log(fmt.Sprintf("Verbosity Level: %d", ds.flags.Level))
	ds.log("----------------------------------")

	ds.testConfig()
	ds.testDatabase()
	ds.testAuthentication(ctx)

	// API checks need working credentials
	if ds.client != nil {
		ds.testInbox(ctx)
		if ds.flags.PostID != "" {
			ds.testPost(ctx)
		}
	}

	ds.log("----------------------------------")
	ds.log("Diagnosis suite finished.")

	ds.saveReport()
	return !ds.failed
}

func (ds *DiagnosisSuite) log(message string) {
	fmt.Fprintln(ds.out, message)
	ds.report.WriteString(message + "\n")
}

// check writes a result line; the report file gets it without colors.
func (ds *DiagnosisSuite) check(r result, format string, args ...any) {
	if r == resultFail {
		ds.failed = true
	}
	message := fmt.Sprintf(format, args...)
	label := resultLabels[r]
	fmt.Fprintf(ds.out, " - %s: %s\n", resultColors[r](label), message)
	ds.report.WriteString(fmt.Sprintf(" - %s: %s\n", label, message))
}

var userPathPattern = regexp.MustCompile(`(?i)(C:\\Users\\[^\\]+|/home/[^/]+|/Users/[^/]+)`)

func (ds *DiagnosisSuite) sanitizePath(path string) string {
	return userPathPattern.ReplaceAllString(path, "[REDACTED_USER_PATH]")
}

func (ds *DiagnosisSuite) testConfig() {
	ds.log("\n[1] Testing Configuration")
	ds.log(fmt.Sprintf(" - Config path: %s", ds.sanitizePath(resolvedConfigPath())))

	if ds.cfg == nil {
		ds.check(resultFail, "Configuration could not be loaded: %v", ds.cfgErr)
		ds.log("   Run 'dm-archiver init' to create a config file, or set the variables in the environment.")
		return
	}
	ds.check(resultPass, "Config loaded successfully.")

	hour, minute, _ := ds.cfg.ScheduleClock()
	ds.check(resultInfo, "Daily run at %02d:%02d (%s)", hour, minute, ds.cfg.Location())

	if ds.flags.Level > 1 {
		redacted := ds.cfg.Redacted()
		redacted.Options.LogDir = ds.sanitizePath(redacted.Options.LogDir)
		ds.log(fmt.Sprintf(" - Loaded config (redacted): %+v", redacted))
	}
}

func (ds *DiagnosisSuite) testDatabase() {
	ds.log("\n[2] Testing Database")
	if ds.cfg == nil {
		ds.check(resultSkip, "Cannot test the database without a valid config.")
		return
	}

	database, err := db.NewDatabase(ds.cfg.Database.Connector)
	if err != nil {
		ds.check(resultFail, "Could not open the database: %v", err)
		return
	}
	defer database.Close()

	if !database.Healthy(context.Background()) {
		ds.check(resultFail, "Database did not answer the health check.")
		return
	}
	ds.check(resultPass, "Database (%s) is reachable and the schema is current.", database.Driver)

	summary, err := dbservice.NewReportService(database.DB).Summary()
	if err != nil {
		ds.check(resultWarn, "Could not count archive rows: %v", err)
		return
	}
	ds.check(resultInfo, "%d authors, %d posts, %d comments, %d deleted posts",
		summary.Authors, summary.Posts, summary.Comments, summary.Tombstones)
}

func (ds *DiagnosisSuite) testAuthentication(ctx context.Context) {
	ds.log("\n[3] Testing Authentication")
	if ds.cfg == nil {
		ds.check(resultSkip, "Cannot test authentication without a valid config.")
		return
	}

	client := posts.NewClient(ds.cfg.Twitter.APIBaseURL, headers.NewSignedClient(ctx, ds.cfg.Twitter), ds.cfg.Options.RequestsPerSecond)
	account, err := auth.Login(ctx, client)
	if err != nil {
		ds.check(resultFail, "Login failed. Check the consumer key and access token. Error: %v", err)
		return
	}
	ds.client = client

	loggedInAs := account.Name
	if loggedInAs == "" {
		loggedInAs = account.ScreenName
	}
	ds.check(resultPass, "Logged in as: %s (Handle: [REDACTED])", loggedInAs)
}

func (ds *DiagnosisSuite) testInbox(ctx context.Context) {
	ds.log("\n[4] Testing Inbox")
	messages, err := ds.client.ListDirectMessages(ctx, ds.cfg.Options.PageSize, 1, posts.ListOptions{})
	if err != nil {
		ds.check(resultFail, "Could not list direct messages: %v", err)
		return
	}
	ds.check(resultPass, "Listed %d direct messages.", len(messages))

	resolver := core.NewLinkResolver(ds.cfg.Options.PostHosts...)
	commands := 0
	for _, msg := range messages {
		cmd := core.ParseCommand(msg.Text)
		if !cmd.Matched {
			continue
		}
		commands++
		if ds.flags.Level > 2 {
			link := resolver.Resolve(msg.ExpandedURL(cmd.Link))
			ds.log(fmt.Sprintf("   - message %s: link resolved: %v", msg.ID, link.Matched))
		}
	}
	ds.check(resultInfo, "%d of them are bot commands.", commands)
}

func (ds *DiagnosisSuite) testPost(ctx context.Context) {
	ds.log(fmt.Sprintf("\n[5] Testing Post: %s", ds.flags.PostID))

	fetched := ds.client.GetPost(ctx, ds.flags.PostID)
	switch fetched.Status {
	case core.FetchFound:
		ds.check(resultPass, "Post found, author id %d, %d characters of text.", fetched.Post.AuthorID, len([]rune(fetched.Post.Text)))
	case core.FetchNotFound:
		ds.check(resultInfo, "Post is gone; it would be recorded as deleted.")
	case core.FetchTransient:
		ds.check(resultWarn, "Temporary failure, the post would be retried next run: %v", fetched.Err)
	default:
		ds.check(resultFail, "Fatal failure, a pass would stop here: %v", fetched.Err)
	}
}

func (ds *DiagnosisSuite) saveReport() {
	outputFile := ds.flags.OutputFile
	if outputFile == "" {
		outputFile = fmt.Sprintf("diagnosis-report-%s.txt", time.Now().Format("2006-01-02_15-04-05"))
	}

	err := os.WriteFile(outputFile, []byte(ds.report.String()), 0644)
	if err != nil {
		fmt.Fprintf(ds.out, "\nCould not save report to %s: %v\n", outputFile, err)
	} else {
		fmt.Fprintf(ds.out, "\nDiagnosis report saved to %s\n", outputFile)
	}
}

func newDiagnoseCommand() *cobra.Command {
	var flags DiagnosisFlags

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check the config, the database and the API credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// a broken config is reported, not fatal
			cfg, err := config.Load(resolvedConfigPath())

			suite := NewDiagnosisSuite(flags, cfg, err, cmd.OutOrStdout())
			if !suite.Run(cmd.Context()) {
				return fmt.Errorf("diagnosis found problems")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&flags.Level, "level", "l", 1, "Verbosity level (1-3)")
	cmd.Flags().StringVar(&flags.PostID, "post", "", "Also fetch this post id")
	cmd.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "Report file (default: diagnosis-report-<time>.txt)")
	return cmd
}
