// Package report renders plan, run and summary output for the operator.
package report

import (
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/domain/secret"
	"github.com/wpforge/wpforge/internal/domain/state"
)

// Reporter writes human-facing run output.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// PrintPlan renders the plan: which steps are already satisfied and which
// would apply.
func (r *Reporter) PrintPlan(plan *engine.Plan) {
	summary := plan.Summary()

	r.printf("%s\n\n", styleTitle.Render("Provisioning Plan"))

	for _, entry := range plan.Entries() {
		marker := styleSuccess.Render("✓")
		note := ""
		if entry.Status() == engine.StatusNeedsApply {
			marker = styleWarning.Render("+")
		} else if entry.FromState() {
			note = styleMuted.Render(" (recorded done)")
		}
		r.printf("  %s %s%s\n", marker, entry.Step().ID().String(), note)
		r.printf("      %s\n", styleMuted.Render(entry.Step().Description()))
	}

	r.printf("\n%d steps: %d to apply, %d satisfied\n",
		summary.Total, summary.NeedsApply, summary.Satisfied)
}

// PrintResults renders the per-step outcomes of a run.
func (r *Reporter) PrintResults(report *engine.Report) {
	r.printf("\n%s\n\n", styleTitle.Render("Run Results"))

	for _, result := range report.Results() {
		switch result.Status() {
		case engine.StatusSatisfied:
			if result.Applied() {
				r.printf("  %s %s %s\n",
					styleSuccess.Render("✓"),
					result.StepID().String(),
					styleMuted.Render(fmt.Sprintf("(applied in %s)", result.Duration().Round(time.Millisecond))))
			} else {
				r.printf("  %s %s %s\n",
					styleSuccess.Render("✓"),
					result.StepID().String(),
					styleMuted.Render("(already satisfied)"))
			}
		case engine.StatusFailed:
			r.printf("  %s %s: %v\n",
				styleError.Render("✗"),
				result.StepID().String(),
				result.Error())
		default:
			r.printf("  %s %s (%s)\n",
				styleWarning.Render("-"),
				result.StepID().String(),
				result.Status())
		}
	}
}

// PrintStatus renders the persisted run state for the status command.
// Secret values are never printed here, only their names.
func (r *Reporter) PrintStatus(runState *state.RunState) {
	r.printf("%s\n\n", styleTitle.Render("Recorded State"))
	r.printf("  Run ID:  %s\n", runState.RunID())
	r.printf("  Created: %s\n", runState.CreatedAt().Format(time.RFC3339))
	r.printf("  Updated: %s\n\n", runState.UpdatedAt().Format(time.RFC3339))

	steps := runState.Steps()
	ids := make([]string, 0, len(steps))
	for id := range steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		marker := styleWarning.Render("-")
		switch steps[id] {
		case state.StatusDone:
			marker = styleSuccess.Render("✓")
		case state.StatusFailed:
			marker = styleError.Render("✗")
		}
		r.printf("  %s %s (%s)\n", marker, id, steps[id])
	}

	names := runState.SecretNames()
	sort.Strings(names)
	if len(names) > 0 {
		r.printf("\n  Secrets on file: %s\n", styleMuted.Render(strings.Join(names, ", ")))
	}
}

// Summary renders the final access details after a fully successful run.
// Passwords are printed only when they were generated during this run;
// reprinting stored credentials on a resume would imply a rotation that
// did not happen.
func (r *Reporter) Summary(dbName, dbUser string, secrets *secret.Store) {
	r.printf("\n%s\n\n", styleTitle.Render("Provisioning complete"))

	r.printf("  Site URL:      http://%s/\n", primaryAddress())
	r.printf("  Database:      %s\n", dbName)
	r.printf("  Database user: %s\n", dbUser)

	r.secretLine("Database password", secret.NameDBPassword, secrets)
	r.secretLine("Root password", secret.NameDBRootPassword, secrets)

	if secrets.HasFresh() {
		r.printf("\n  %s\n", styleWarning.Render("Save these credentials now; they will not be shown again."))
	}
}

func (r *Reporter) secretLine(label, name string, secrets *secret.Store) {
	if !secrets.Fresh(name) {
		r.printf("  %s: %s\n", label, styleMuted.Render("(unchanged)"))
		return
	}

	value, _ := secrets.Get(name)
	r.printf("  %s: %s\n", label, styleSecret.Render(value))
}

func (r *Reporter) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// primaryAddress returns the host's primary outbound IP, falling back to
// the hostname. The UDP dial does not send any packets.
func primaryAddress() string {
	conn, err := net.Dial("udp", "198.51.100.1:53")
	if err == nil {
		defer func() { _ = conn.Close() }()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			return addr.IP.String()
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return hostname
}
