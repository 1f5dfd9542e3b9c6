// Package cleanup provides the cache cleanup worker and its console reporter.
package cleanup

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
)

// One Dark palette, shared with the CLI doctor output.
var (
	cyan       = color.RGB(86, 182, 194)
	cyanBright = color.RGB(97, 228, 240)
	dimCyan    = color.RGB(47, 91, 102)
	grey       = color.RGB(110, 118, 129)
	dimGrey    = color.RGB(75, 82, 99)
	okTone     = color.RGB(62, 130, 144)
	warnTone   = color.RGB(229, 192, 123)
	errTone    = color.RGB(224, 108, 117)
	fgWhite    = color.RGB(171, 178, 191)
	fgBright   = color.RGB(220, 225, 230)
	purple     = color.RGB(198, 120, 221)
	dimPurple  = color.RGB(142, 87, 158)
)

type Reporter struct {
	cache interfaces.Cache
}

func NewReporter(cache interfaces.Cache) *Reporter {
	return &Reporter{cache: cache}
}

func (r *Reporter) LogHeader(title string) {
	cyan.Add(color.Bold).Printf("✓ %s\n", strings.ToUpper(title))
}

func (r *Reporter) LogSubHeader(text string) {
	dimCyan.Add(color.Bold).Printf("░▒▓ %s\n", text)
}

func (r *Reporter) LogStepSuccess(message string, args ...any) {
	grey.Printf("⚡ %s...\n", fmt.Sprintf(message, args...))
}

func (r *Reporter) LogStage(message string, args ...any) {
	okTone.Add(color.Bold).Printf("✦ %s\n", fmt.Sprintf(message, args...))
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	fgWhite.Add(color.Bold).Printf("✦ %s\n", fmt.Sprintf(message, args...))
}

func (r *Reporter) LogError(message string, err error) {
	errTone.Add(color.Bold).Printf("✖ ERROR: %s: %v\n", message, err)
}

func (r *Reporter) LogWarning(message string, args ...any) {
	warnTone.Add(color.Bold).Printf("⚠ WARNING: %s\n", fmt.Sprintf(message, args...))
}

func (r *Reporter) LogInfo(message string, args ...any) {
	dimGrey.Printf("▶ %s\n", fmt.Sprintf(message, args...))
}

// GenerateTenantReport renders one tenant's cache occupancy as a compact
// multi-line summary for the cleanup cycle log.
func (r *Reporter) GenerateTenantReport(tenantID string) string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")

	report.WriteString(fmt.Sprintf("%s %s\n",
		dimCyan.Add(color.Bold).Sprintf("▓ %s | Tenant:", timestamp),
		fgBright.Sprint(tenantID)))

	if catalogMap, exists := r.cache.GetFullCatalogMap(tenantID); exists {
		report.WriteString(okTone.Sprint("✦ ") + grey.Sprint("Catalog Map: ") +
			cyanBright.Sprintf("%d items", len(catalogMap)))
	} else {
		report.WriteString(errTone.Sprint("✖ ") + grey.Sprint("Catalog Map: ") +
			errTone.Sprint("NOT LOADED"))
	}
	report.WriteString("  ")
	if _, exists := r.cache.GetDashboardSummary(tenantID); exists {
		report.WriteString(okTone.Sprint("✦ ") + grey.Sprint("Dashboard: ") + fgWhite.Sprint("READY"))
	} else {
		report.WriteString(dimGrey.Sprint("○ ") + grey.Sprint("Dashboard: ") + cyan.Sprint("PRIMED"))
	}
	report.WriteString("\n")

	report.WriteString(cyanBright.Sprint("✦ cached nodes:"))
	counts := []struct {
		name   string
		getter func(string) ([]string, bool)
	}{
		{"products", r.cache.GetAllProductIDs},
		{"categories", r.cache.GetAllCategoryIDs},
		{"customers", r.cache.GetAllCustomerIDs},
		{"specials", r.cache.GetAllSpecialIDs},
	}
	for _, ct := range counts {
		report.WriteString(" ")
		if ids, exists := ct.getter(tenantID); exists && len(ids) > 0 {
			report.WriteString(dimCyan.Sprint(ct.name+":") + cyan.Sprintf("%d", len(ids)))
		} else {
			report.WriteString(dimGrey.Sprint(ct.name + ":--"))
		}
	}
	report.WriteString("\n")

	report.WriteString(purple.Sprint("✦ activity:"))
	sessions := len(r.cache.GetAllDraftSessionIDs(tenantID))
	if sessions > 0 {
		report.WriteString(" " + dimPurple.Sprint("draft-sessions:") + fgWhite.Sprintf("%d", sessions))
	} else {
		report.WriteString(" " + dimGrey.Sprint("draft-sessions:--"))
	}
	report.WriteString("\n")

	return report.String()
}
