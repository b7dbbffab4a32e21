// Command permissions prints the embedded permission matrix or checks one cell of it.
//
//	permissions                                   # dump the matrix as YAML
//	permissions -role content_specialist          # dump one role
//	permissions -role viewer -resource articles -action read
//
// A check exits 0 on allow, 2 on allow-if-owner and 1 on deny. A matrix that fails
// to load exits 70.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"newsroom/internal/domain/models"
	"newsroom/internal/service/authz"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	exitAllow = 0
	exitDeny  = 1
	exitOwner = 2
	exitUsage    = 64
	exitSoftware = 70
)

var loadCatalog = authz.LoadCatalog

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("permissions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	role := fs.String("role", "", "role to show or check")
	resource := fs.String("resource", "", "resource to check")
	action := fs.String("action", "", "action to check")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	catalog, err := loadCatalog()
	if err != nil {
		fmt.Fprintf(stderr, "load catalog: %v\n", err)
		return exitSoftware
	}

	if *resource == "" && *action == "" {
		if err := dump(stdout, catalog, *role); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return exitUsage
		}
		return exitAllow
	}

	if *role == "" || *resource == "" || *action == "" {
		fmt.Fprintln(stderr, "a check needs -role, -resource and -action")
		return exitUsage
	}

	engine := authz.NewEngine(catalog)
	value := engine.Decide(*role, models.Resource(*resource), models.Action(*action))
	fmt.Fprintf(stdout, "%s %s %s: %s\n", models.NormalizeRole(*role), *resource, *action, value)

	switch value {
	case models.PermissionAllow:
		return exitAllow
	case models.PermissionAllowIfOwner:
		return exitOwner
	default:
		return exitDeny
	}
}

// dump writes the matrix, or one role of it, in the catalog's own YAML layout.
func dump(w io.Writer, catalog *authz.Catalog, role string) error {
	roles := models.Roles
	if role != "" {
		r := models.Role(role)
		if !r.Valid() {
			return fmt.Errorf("unknown role %q", role)
		}
		roles = []models.Role{r}
	}

	out := map[string]map[models.Role]map[models.Resource]map[models.Action]models.PermissionValue{
		"roles": make(map[models.Role]map[models.Resource]map[models.Action]models.PermissionValue, len(roles)),
	}
	for _, r := range roles {
		out["roles"][r] = catalog.Row(r)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
