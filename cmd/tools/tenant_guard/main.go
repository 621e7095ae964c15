package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// tenantGuard scans the repository packages for inline SQL touching
// tenant-owned tables and ensures every SELECT/UPDATE/DELETE carries a
// tenant_id filter. Exit code 0 = ok, 1 = violation, 2 = other error.
func main() {
	root := "internal"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	deny, err := scan(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tenant_guard error: %v\n", err)
		os.Exit(2)
	}
	if len(deny) > 0 {
		for _, v := range deny {
			fmt.Fprintf(os.Stderr, "VIOLATION: %s\n", v)
		}
		os.Exit(1)
	}
	fmt.Println("tenant_guard: OK")
}

// Tables that have a tenant_id column and must never be queried without it.
// admin_users is excluded: session refresh resolves the user by primary key
// after the opaque token has already been verified.
var tenantTables = []string{
	"services", "forms", "coupons", "bookings", "audit_logs", "domain_events",
}

// Queries read columns from a separate constant, so the fragment holding the
// table name may not contain the SELECT keyword itself. Matching on FROM alone
// (after DELETE and UPDATE have had their turn) catches those.
var (
	reRawString = regexp.MustCompile("`[^`]*`")
	reDelete    = regexp.MustCompile(`(?is)\bdelete\s+from\s+([a-z_]+)\b`)
	reUpdate    = regexp.MustCompile(`(?is)\bupdate\s+([a-z_]+)\b`)
	reFrom      = regexp.MustCompile(`(?is)\bfrom\s+([a-z_]+)\b`)
	reTenant    = regexp.MustCompile(`(?i)tenant_id\s*=\s*\$[0-9]+`)
)

func scan(dir string) ([]string, error) {
	var violations []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, raw := range reRawString.FindAllString(string(data), -1) {
			if table, ok := statementTable(raw); ok && isTenantTable(table) && !reTenant.MatchString(raw) {
				violations = append(violations, fmt.Sprintf("%s: %s query on %q without tenant_id filter", path, verb(raw), table))
			}
		}
		return nil
	})
	return violations, err
}

func statementTable(sql string) (string, bool) {
	for _, re := range []*regexp.Regexp{reDelete, reUpdate, reFrom} {
		if m := re.FindStringSubmatch(sql); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func verb(sql string) string {
	lower := strings.ToLower(sql)
	switch {
	case strings.Contains(lower, "delete"):
		return "DELETE"
	case strings.Contains(lower, "update"):
		return "UPDATE"
	default:
		return "SELECT"
	}
}

func isTenantTable(table string) bool {
	for _, t := range tenantTables {
		if t == table {
			return true
		}
	}
	return false
}
