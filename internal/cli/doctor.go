package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
	"github.com/plateful/plateful-go/pkg/config"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "ok", "warn", "fail"
	Details string // Only shown if Status != "ok"
}

// DoctorCmd returns the doctor command for install validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the server install and tenant data",
		Long: `Health check for a plateful-server install.

Validates:
- Home directory structure (PLATEFUL_HOME, default ~/plateful-server)
- Config overlay (config/plateful.toml parses)
- Tenant registry (config/plateful/tenants.json)
- Per-tenant SQLite database files
- Operations dashboard protection (OPS_PASSWORD)

Examples:
  plateful-go doctor          # Run full health check
  plateful-go doctor --quiet  # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{
				checkHomeDir(),
				checkConfigOverlay(),
				checkTenantRegistry(),
				checkTenantDatabases(),
				checkOpsPassword(),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "fail" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check               Status")
				fmt.Println("--------------------------")
				for _, r := range results {
					fmt.Printf("%-19s %s\n", r.Name, statusGlyph(r.Status))
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "ok" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println()
					fmt.Println(color.New(color.FgRed).Sprint("Issues found."))
				} else {
					fmt.Println(color.New(color.FgGreen).Sprint("All checks passed."))
				}
			}

			if hasErrors {
				return fmt.Errorf("install validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

func statusGlyph(status string) string {
	switch status {
	case "ok":
		return color.New(color.FgGreen).Sprint("✓")
	case "warn":
		return color.New(color.FgYellow).Sprint("⚠")
	default:
		return color.New(color.FgRed).Sprint("✗")
	}
}

// checkHomeDir validates the server home directory
func checkHomeDir() CheckResult {
	info, err := os.Stat(config.HomeDir)
	if os.IsNotExist(err) {
		return CheckResult{
			Name:    "Home directory",
			Status:  "warn",
			Details: fmt.Sprintf("  %s does not exist yet; the server creates it on first boot", config.HomeDir),
		}
	}
	if err != nil {
		return CheckResult{Name: "Home directory", Status: "fail", Details: "  " + err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{
			Name:    "Home directory",
			Status:  "fail",
			Details: fmt.Sprintf("  %s exists but is not a directory", config.HomeDir),
		}
	}
	return CheckResult{Name: "Home directory", Status: "ok"}
}

// checkConfigOverlay validates the optional plateful.toml
func checkConfigOverlay() CheckResult {
	path := config.TomlPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Config overlay",
			Status:  "warn",
			Details: fmt.Sprintf("  no %s; built-in defaults apply", path),
		}
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return CheckResult{
			Name:    "Config overlay",
			Status:  "fail",
			Details: fmt.Sprintf("  %s does not parse: %v", path, err),
		}
	}
	return CheckResult{Name: "Config overlay", Status: "ok"}
}

// checkTenantRegistry validates the tenant registry file
func checkTenantRegistry() CheckResult {
	if _, err := os.Stat(tenant.RegistryPath()); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Tenant registry",
			Status:  "warn",
			Details: "  no registry yet; first boot registers the default tenant",
		}
	}

	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return CheckResult{
			Name:    "Tenant registry",
			Status:  "fail",
			Details: fmt.Sprintf("  %s does not parse: %v", tenant.RegistryPath(), err),
		}
	}

	active := 0
	for _, info := range registry.Tenants {
		if info.Status == "active" {
			active++
		}
	}
	if len(registry.Tenants) == 0 {
		return CheckResult{
			Name:    "Tenant registry",
			Status:  "warn",
			Details: "  registry is empty; first boot registers the default tenant",
		}
	}
	if active == 0 {
		return CheckResult{
			Name:    "Tenant registry",
			Status:  "warn",
			Details: fmt.Sprintf("  %d tenant(s), none active; run the setup flow", len(registry.Tenants)),
		}
	}
	return CheckResult{Name: "Tenant registry", Status: "ok"}
}

// checkTenantDatabases verifies each registered sqlite tenant has its database file
func checkTenantDatabases() CheckResult {
	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return CheckResult{
			Name:    "Tenant databases",
			Status:  "warn",
			Details: "  registry unavailable; nothing to check",
		}
	}

	missing := []string{}
	for tenantID, info := range registry.Tenants {
		if info.Status != "active" || info.DatabaseType == "turso" {
			continue
		}
		dbPath := filepath.Join(config.HomeDir, "db", tenantID, "plateful.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			missing = append(missing, dbPath)
		}
	}

	if len(missing) > 0 {
		details := ""
		for _, path := range missing {
			details += "  missing " + path + "\n"
		}
		return CheckResult{Name: "Tenant databases", Status: "fail", Details: details}
	}
	return CheckResult{Name: "Tenant databases", Status: "ok"}
}

// checkOpsPassword warns when the operations dashboard is unprotected
func checkOpsPassword() CheckResult {
	if os.Getenv("OPS_PASSWORD") == "" {
		return CheckResult{
			Name:    "Ops password",
			Status:  "warn",
			Details: "  OPS_PASSWORD is not set; the operations dashboard is open",
		}
	}
	return CheckResult{Name: "Ops password", Status: "ok"}
}
