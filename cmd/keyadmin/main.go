// Command keyadmin provisions API keys in the PostgreSQL keystore.
//
// Usage:
//
//	keyadmin create -key-id client-a -scopes platform:chat
//	keyadmin rotate -key-id client-a
//	keyadmin revoke -key-id client-a
//	keyadmin show   -key-id client-a
//	keyadmin migrate
//
// The connection string comes from -dsn or EINLASS_POSTGRES_DSN. Issued
// secrets are printed exactly once; only their hash is stored.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rhuss/einlass/pkg/keystore/postgres"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "create":
		err = runCreate(args)
	case "rotate":
		err = runRotate(args)
	case "revoke":
		err = runRevoke(args)
	case "show":
		err = runShow(args)
	case "migrate":
		err = runMigrate(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `keyadmin manages API keys in the PostgreSQL keystore.

Commands:
  create   provision a new key and print its credential
  rotate   replace the secret of an existing key (re-enables it)
  revoke   disable a key
  show     print a key record
  migrate  apply schema migrations and exit

Flags common to all commands:
  -dsn     PostgreSQL connection string (default: EINLASS_POSTGRES_DSN)
`)
}

// dsnFlag registers the shared -dsn flag on a subcommand flag set.
func dsnFlag(fs *flag.FlagSet) *string {
	return fs.String("dsn", os.Getenv("EINLASS_POSTGRES_DSN"), "PostgreSQL connection string")
}

func openStore(dsn string, migrate bool) (*postgres.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("no DSN given (use -dsn or EINLASS_POSTGRES_DSN)")
	}
	return postgres.New(context.Background(), postgres.Config{
		DSN:            dsn,
		MigrateOnStart: migrate,
	})
}

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	dsn := dsnFlag(fs)
	keyID := fs.String("key-id", "", "key identifier")
	scopes := fs.String("scopes", "platform:chat", "comma-separated scopes")
	fs.Parse(args)

	if *keyID == "" {
		return fmt.Errorf("-key-id is required")
	}

	store, err := openStore(*dsn, false)
	if err != nil {
		return err
	}
	defer store.Close()

	issued, err := store.Create(context.Background(), *keyID, strings.Split(*scopes, ","))
	if err != nil {
		return err
	}
	printIssued(issued.KeyID, issued.SecretPlaintext, issued.Scopes)
	return nil
}

func runRotate(args []string) error {
	fs := flag.NewFlagSet("rotate", flag.ExitOnError)
	dsn := dsnFlag(fs)
	keyID := fs.String("key-id", "", "key identifier")
	fs.Parse(args)

	if *keyID == "" {
		return fmt.Errorf("-key-id is required")
	}

	store, err := openStore(*dsn, false)
	if err != nil {
		return err
	}
	defer store.Close()

	issued, err := store.Rotate(context.Background(), *keyID)
	if err != nil {
		return err
	}
	printIssued(issued.KeyID, issued.SecretPlaintext, issued.Scopes)
	return nil
}

func runRevoke(args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	dsn := dsnFlag(fs)
	keyID := fs.String("key-id", "", "key identifier")
	fs.Parse(args)

	if *keyID == "" {
		return fmt.Errorf("-key-id is required")
	}

	store, err := openStore(*dsn, false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Revoke(context.Background(), *keyID); err != nil {
		return err
	}
	fmt.Printf("revoked %s\n", *keyID)
	return nil
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dsn := dsnFlag(fs)
	keyID := fs.String("key-id", "", "key identifier")
	fs.Parse(args)

	if *keyID == "" {
		return fmt.Errorf("-key-id is required")
	}

	store, err := openStore(*dsn, false)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(context.Background(), *keyID)
	if err != nil {
		return err
	}

	state := "active"
	if rec.Disabled {
		state = "disabled"
	}
	fmt.Printf("key:    %s\n", rec.KeyID)
	fmt.Printf("state:  %s\n", state)
	fmt.Printf("scopes: %s\n", strings.Join(rec.Scopes, ", "))
	return nil
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn := dsnFlag(fs)
	fs.Parse(args)

	store, err := openStore(*dsn, true)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Println("migrations applied")
	return nil
}

// printIssued prints a freshly issued credential. The plaintext secret
// exists only in this output.
func printIssued(keyID, secret string, scopes []string) {
	fmt.Printf("key:        %s\n", keyID)
	fmt.Printf("scopes:     %s\n", strings.Join(scopes, ", "))
	fmt.Printf("credential: %s:%s\n", keyID, secret)
	fmt.Println()
	fmt.Println("Store the credential now. The secret cannot be recovered later;")
	fmt.Println("use rotate to issue a new one.")
}
